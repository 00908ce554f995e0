package monitor

import "time"

type Status struct {
	Driver    string    `json:"driver"`
	Storage   bool      `json:"storage"`
	Redis     bool      `json:"redis"`
	LastCheck time.Time `json:"last_check"`
}
