// Package uitest provides test doubles and helpers for browserhost's UI.
//
// # Scripted frames
//
// [Frame] is a [ui.Frame] that records every widget declared during a frame
// and replays scripted user input on the next one. Widgets are addressed by
// their ID path, which joins the window ID, pushed IDs and the widget ID
// with "/":
//
//	f := uitest.NewFrame()
//	f.Type("Settings##BrowserHost/"+id+"/URL", "https://example.com")
//	m.Render(ctx, f)
//	f.Next()
//
// # Terminal programs
//
// [NewTestModel] runs a Bubble Tea model under teatest at one of the
// standard terminal sizes:
//
//	tm := uitest.NewTestModel(t, model, uitest.Standard)
//	uitest.WaitFor(t, tm.Output(), func(b []byte) bool { return bytes.Contains(b, want) })
//	uitest.Quit(t, tm, tea.KeyMsg{Type: tea.KeyCtrlC})
package uitest
