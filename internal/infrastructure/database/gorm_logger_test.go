package database

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestGormLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := newGormLogger(zerolog.New(&buf), logger.Warn)
	ctx := context.Background()
	query := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), query, nil)
	l.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)
	l.Info(ctx, "connected %s", "db")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing at warn level, got %s", buf.String())
	}

	l.Trace(ctx, time.Now(), query, errors.New("deadlock"))
	if !strings.Contains(buf.String(), `"level":"error"`) || !strings.Contains(buf.String(), "SELECT 1") {
		t.Fatalf("expected error line with sql, got %s", buf.String())
	}

	buf.Reset()
	l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	if !strings.Contains(buf.String(), "slow query") {
		t.Fatalf("expected slow query warning, got %s", buf.String())
	}

	buf.Reset()
	l.LogMode(logger.Silent).Trace(ctx, time.Now(), query, errors.New("boom"))
	if buf.Len() != 0 {
		t.Fatalf("silent mode logged %s", buf.String())
	}
}
