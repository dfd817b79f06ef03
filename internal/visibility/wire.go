package visibility

import "time"

// Message is the JSON wire form shared by the UDP packet and the SSE feed.
type Message struct {
	Type     string       `json:"type"`
	EpochUTC string       `json:"epoch_utc"`
	SunAlt   float64      `json:"sun_alt"`
	IsNight  bool         `json:"is_night"`
	Rows     []MessageRow `json:"rows"`
}

// MessageRow is one wire-form row.
type MessageRow struct {
	Name    string  `json:"name"`
	Az      float64 `json:"az"`
	El      float64 `json:"el"`
	RangeKm float64 `json:"range_km"`
	Sunlit  bool    `json:"sunlit"`
	Special bool    `json:"is_special"`
	Color   string  `json:"color"`
}

// Message converts the snapshot to wire form, capping rows at maxRows
// (maxRows < 1 means one row minimum, matching the UDP packet floor).
func (s *Snapshot) Message(maxRows int) Message {
	if maxRows < 1 {
		maxRows = 1
	}
	n := len(s.Rows)
	if n > maxRows {
		n = maxRows
	}

	rows := make([]MessageRow, n)
	for i := 0; i < n; i++ {
		r := s.Rows[i]
		rows[i] = MessageRow{
			Name:    r.Name,
			Az:      r.AzimuthDeg,
			El:      r.ElevationDeg,
			RangeKm: r.RangeKm,
			Sunlit:  r.Sunlit,
			Special: r.Special,
			Color:   r.Color(),
		}
	}

	return Message{
		Type:     "snapshot",
		EpochUTC: s.Epoch.UTC().Format(time.RFC3339),
		SunAlt:   s.SunAltDeg,
		IsNight:  s.Night,
		Rows:     rows,
	}
}
