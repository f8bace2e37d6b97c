package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewSessionID 生成新的会话 ID / Generates a new per-process session ID
func NewSessionID(now time.Time) string {
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("sess_%d_%s", now.UTC().Unix(), short)
}
