// Package ui provides terminal output components for the myconode CLIs.
//
// Components follow a "render once and print" pattern: they produce styled
// strings with lipgloss and never take over the terminal.
//
//   - Header: command banner showing the operation and its parameters
//   - Meter: single-line progress bar for bounded waits (link connect)
//   - Result: success/warning/failure boxes with details and an optional body
//
// Example:
//
//	fmt.Println(ui.RenderCommandHeader("Store GET", "myconode-cfg get robotArm",
//	    map[string]string{"Host": host}))
//	fmt.Println(ui.NewSuccessResult("GET robotArm", map[string]string{"Status": "200"}).
//	    SetBody(string(body)).Render())
//
// # Logging Integration
//
// Zap logging is controlled by MYCONODE_LOG_LEVEL. When it is unset the logger
// is silent so the curated UI output is displayed cleanly.
package ui
