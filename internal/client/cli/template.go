package cli

const roomInfoTemplate = `
=== Room {{.ID}} ===

{{- if .Exists }}
Status:       available
Clients:      {{.Clients}}
{{- if not .UpdatedAt.IsZero }}
Last saved:   {{.UpdatedAt.Format "2006-01-02 15:04:05 MST"}}
{{- else }}
Last saved:   never
{{- end }}
{{- else }}
Status:       not found
{{- end }}
`

const statusTemplate = `
=== Document Status ===

Mode:         {{if .SessionID}}room {{.SessionID}}{{else}}local{{end}}
View:         {{.State.Status}}
Connection:   {{.State.Collaboration.Status}}
{{- if .State.IsReconnecting }}
⚠️  Connection lost, edits are kept locally and will sync on reconnect
{{- end }}
{{- if .State.Error }}
Error:        {{.State.Error.Message}}
{{- end }}
{{- if .State.Snapshot.Filename }}
Source file:  {{.State.Snapshot.Filename}}
{{- end }}
Rows:         {{len .State.Snapshot.Rows}}
Columns:      {{len .State.Snapshot.Headers}}
{{- if .State.CanShare }}

Run 'share' to publish this document to a collaborative room.
{{- end }}
`

const usersTemplate = `
=== Collaborators ===

- {{.Local.Name}} ({{initials .Local.Name}}) {{.Local.Color}}  [you]
{{- range .Remote }}
- {{.Name}} ({{initials .Name}}) {{.Color}}
  {{- if .SelectedCell }}  at row {{inc .SelectedCell.RowIndex}}, {{.SelectedCell.ColID}}{{ end }}
{{- end }}
{{- if eq (len .Remote) 0 }}

Nobody else is here yet.
{{- end }}
`

const replHelpTemplate = `
Commands:
  show                    Print the table
  set ROW COL VALUE       Set a cell (ROW from 1, COL by name or number)
  addrow [ROW]            Insert an empty row at ROW (default: append)
  rmrow ROW               Delete a row
  duprow ROW              Duplicate a row below itself
  addcol [AFTER]          Add a column after AFTER (default: last)
  rmcol COL               Delete a column
  select ROW COL          Show your cursor to collaborators ('select -' clears)
  export FILE [headers|noheaders]
                          Save the table as .csv or .xlsx
  share                   Publish the local document to a new room
  reset                   Restore the playground demo data
  status                  Show document and connection status
  users                   List collaborators
  help                    Show this help
  quit                    Save and exit
`
