// Package operator carries human-facing status messages from the node to
// whoever is watching it: a terminal, the structured log, or the live feed.
//
// Producers such as the network link and the agent only see the Notifier
// interface. Sinks are combined with Multi:
//
//	n := operator.Multi(operator.NewConsole(os.Stdout), operator.LogNotifier{}, feed)
//	link := netlink.New(radio, netlink.WithNotifier(n))
package operator
