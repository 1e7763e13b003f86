// Package discovery finds document stores on the local network and
// advertises the agent's live feed, both over mDNS/DNS-SD.
//
// Stores advertise themselves as "_myconode-store._tcp" services. Two TXT
// records shape the resulting URL:
//
//	scheme=https   (default http)
//	path=/grow     (document root, default /)
//
// # Usage
//
//	store, err := discovery.FindStore(ctx, 5*time.Second)
//	if err != nil {
//	    return err
//	}
//	endpoint := remotesync.Endpoint{Host: store.URL(), Secret: token}
//
// The agent registers its feed as "_myconode-feed._tcp" with Advertise so
// operator tools can find it without configuration.
package discovery
