package storage

import "time"

// SyncEvent 一次同步过程的统计记录
// SyncEvent records the counters of one reconciliation pass.
type SyncEvent struct {
	ID             int64     `json:"id"`
	SessionID      string    `json:"session_id"`
	ProjectDir     string    `json:"project_dir"`
	StoryID        string    `json:"story_id"`
	Processed      int       `json:"processed"`
	MatchedID      int       `json:"matched_id"`
	MatchedExact   int       `json:"matched_exact"`
	MatchedSimilar int       `json:"matched_similar"`
	LowConfidence  int       `json:"low_confidence"`
	IdentityMisses int       `json:"identity_misses"`
	LocateMisses   int       `json:"locate_misses"`
	Updated        int       `json:"updated"`
	Invalid        int       `json:"invalid"`
	DryRun         bool      `json:"dry_run"`
	CreatedAt      time.Time `json:"created_at"`
}
