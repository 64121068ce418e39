package bundle

import "fmt"

// Info summarizes a persisted bundle
type Info struct {
	Timestamp      int64 `json:"timestamp"`
	MessageCount   int   `json:"messageCount"`
	ResponseCount  int   `json:"responseCount"`
	TableDataCount int   `json:"tableDataCount"`
	Size           int   `json:"size"`
}

// Summarize decodes raw and reports its counts and encoded size
func Summarize(raw []byte) (Info, error) {
	b, err := Decode(raw)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Timestamp:      b.Timestamp,
		MessageCount:   len(b.Data.Messages),
		ResponseCount:  len(b.Data.Responses),
		TableDataCount: len(b.Data.TableData),
		Size:           len(raw),
	}, nil
}

// RestorePrompt is the question asked before a stored session replaces a
// fresh one
func (i Info) RestorePrompt() string {
	return fmt.Sprintf("Found a previous session with %d messages, %d responses, and %d table items. Would you like to restore it?",
		i.MessageCount, i.ResponseCount, i.TableDataCount)
}

// HumanSize formats Size with binary units
func (i Info) HumanSize() string {
	const k = 1024
	size := float64(i.Size)
	units := []string{"Bytes", "KB", "MB", "GB"}
	u := 0
	for size >= k && u < len(units)-1 {
		size /= k
		u++
	}
	if u == 0 {
		return fmt.Sprintf("%d Bytes", i.Size)
	}
	return fmt.Sprintf("%.2f %s", size, units[u])
}
