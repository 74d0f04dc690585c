package gamelog

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"tailscale.com/tsweb"
)

// AttachAdminRoutes attaches database debugging endpoints under /debug/.
// These routes are accessible only over localhost/via Tailscale.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("db-stats", "game log row counts", func(w http.ResponseWriter, r *http.Request) {
		stats := map[string]int64{}
		for _, table := range []string{"sessions", "moves", "telemetry"} {
			var n int64
			if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
				http.Error(w, fmt.Sprintf("failed to count %s: %v", table, err), http.StatusInternalServerError)
				return
			}
			stats[table] = n
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	})

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := fmt.Sprintf("backup-%d.db", time.Now().Unix())
		if _, err := db.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		defer os.Remove(backupPath)

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer backupFile.Close()

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		io.Copy(w, backupFile)
	}))
}
