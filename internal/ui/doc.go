// Package ui implements an interactive terminal status monitor using
// bubbletea's Elm architecture.
//
// The TUI polls the bridge's status endpoint on a fixed tick and mirrors what
// the web front end shows:
//   - the current connection state as a styled badge
//   - the scannable pairing code, rendered as half-block QR art while the
//     session is waiting to be paired
//   - a hint line gating sends on the READY state
//
// The [Model] implements bubbletea's standard Init/Update/View pattern. Polling
// results arrive as [statusMsg] values produced by an async [tea.Cmd], so the
// update loop never blocks on the network.
//
// Keyboard bindings (r to refresh now, q to quit) surface through
// charmbracelet/bubbles/help.
package ui
