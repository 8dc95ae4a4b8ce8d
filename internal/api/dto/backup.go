package dto

import "time"

type BackupResponse struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Trips   int       `json:"trips"`
}

type ListBackupResponse struct {
	Backups []BackupResponse `json:"backups"`
}
