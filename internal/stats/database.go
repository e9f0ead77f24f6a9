package stats

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/nerdneilsfield/go-po-translator/pkg/translator"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// timeLayout 固定宽度的 UTC 时间，字符串比较即时间比较
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS calls (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	provider           TEXT NOT NULL,
	model              TEXT NOT NULL,
	prompt_tokens      INTEGER NOT NULL DEFAULT 0,
	completion_tokens  INTEGER NOT NULL DEFAULT 0,
	cache_read_tokens  INTEGER NOT NULL DEFAULT 0,
	cache_write_tokens INTEGER NOT NULL DEFAULT 0,
	cost               REAL NOT NULL DEFAULT 0,
	duration_ms        INTEGER NOT NULL DEFAULT 0,
	created_at         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_calls_created ON calls(created_at);
CREATE INDEX IF NOT EXISTS idx_calls_model ON calls(provider, model);

CREATE TABLE IF NOT EXISTS runs (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id             TEXT NOT NULL,
	file               TEXT NOT NULL,
	language           TEXT NOT NULL,
	provider           TEXT NOT NULL,
	model              TEXT NOT NULL,
	total              INTEGER NOT NULL DEFAULT 0,
	tm_hits            INTEGER NOT NULL DEFAULT 0,
	deduplicated       INTEGER NOT NULL DEFAULT 0,
	ai_translated      INTEGER NOT NULL DEFAULT 0,
	tm_learned         INTEGER NOT NULL DEFAULT 0,
	input_tokens       INTEGER NOT NULL DEFAULT 0,
	output_tokens      INTEGER NOT NULL DEFAULT 0,
	cache_read_tokens  INTEGER NOT NULL DEFAULT 0,
	cost               REAL NOT NULL DEFAULT 0,
	duration_ms        INTEGER NOT NULL DEFAULT 0,
	status             TEXT NOT NULL,
	error_message      TEXT NOT NULL DEFAULT '',
	created_at         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`

// Database 基于 SQLite 的用量账本
type Database struct {
	db       *sql.DB
	sq       sq.StatementBuilderType
	filePath string
	logger   *zap.Logger
	now      func() time.Time
}

// NewDatabase 打开（必要时创建）用量数据库并迁移表结构
func NewDatabase(filePath string, logger *zap.Logger) (*Database, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// 确保目录存在
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}

	db, err := sql.Open("sqlite", filePath)
	if err != nil {
		return nil, fmt.Errorf("打开用量数据库失败: %w", err)
	}
	// 单个文件只允许一个写连接，避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("迁移用量数据库失败: %w", err)
	}

	logger.Debug("用量数据库已打开", zap.String("path", filePath))

	return &Database{
		db:       db,
		sq:       sq.StatementBuilder,
		filePath: filePath,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func migrate(db *sql.DB) error {
	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
		schema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Path 数据库文件路径
func (d *Database) Path() string {
	return d.filePath
}

// Close 关闭数据库
func (d *Database) Close() error {
	return d.db.Close()
}

// RecordCall 记录一次成功的 AI 调用
func (d *Database) RecordCall(ctx context.Context, record translator.CallRecord) error {
	at := record.At
	if at.IsZero() {
		at = d.now()
	}

	q := d.sq.Insert("calls").
		Columns("provider", "model", "prompt_tokens", "completion_tokens", "cache_read_tokens",
			"cache_write_tokens", "cost", "duration_ms", "created_at").
		Values(record.Provider, record.Model, record.PromptTokens, record.CompletionTokens,
			record.CacheReadTokens, record.CacheWriteTokens, record.Cost,
			record.Duration.Milliseconds(), formatDBTime(at))
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}
	if _, err := d.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("写入调用记录失败: %w", err)
	}
	return nil
}

// AddRun 记录一次翻译任务，返回行号
func (d *Database) AddRun(ctx context.Context, run RunRecord) (int64, error) {
	at := run.CreatedAt
	if at.IsZero() {
		at = d.now()
	}
	if run.Status == "" {
		run.Status = StatusCompleted
	}

	q := d.sq.Insert("runs").
		Columns("run_id", "file", "language", "provider", "model",
			"total", "tm_hits", "deduplicated", "ai_translated", "tm_learned",
			"input_tokens", "output_tokens", "cache_read_tokens", "cost",
			"duration_ms", "status", "error_message", "created_at").
		Values(run.RunID, run.File, run.Language, run.Provider, run.Model,
			run.Total, run.TMHits, run.Deduplicated, run.AITranslated, run.TMLearned,
			run.InputTokens, run.OutputTokens, run.CacheReadTokens, run.Cost,
			run.Duration.Milliseconds(), run.Status, run.ErrorMessage, formatDBTime(at))
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := d.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("写入任务记录失败: %w", err)
	}
	id, _ := res.LastInsertId()

	d.logger.Debug("已记录翻译任务",
		zap.Int64("id", id),
		zap.String("file", run.File),
		zap.String("status", run.Status))
	return id, nil
}

// Summary 按供应商和模型汇总调用，花费高的在前
func (d *Database) Summary(ctx context.Context) ([]ModelSummary, error) {
	q := d.sq.Select("provider", "model", "COUNT(*)",
		"COALESCE(SUM(prompt_tokens), 0)", "COALESCE(SUM(completion_tokens), 0)",
		"COALESCE(SUM(cache_read_tokens), 0)", "COALESCE(SUM(cost), 0.0)",
		"COALESCE(SUM(duration_ms), 0)", "MAX(created_at)").
		From("calls").
		GroupBy("provider", "model").
		OrderBy("SUM(cost) DESC", "provider", "model")
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("查询用量汇总失败: %w", err)
	}
	defer rows.Close()

	var result []ModelSummary
	for rows.Next() {
		var s ModelSummary
		var durationMs int64
		var last sql.NullString
		if err := rows.Scan(&s.Provider, &s.Model, &s.Calls, &s.PromptTokens, &s.CompletionTokens,
			&s.CacheReadTokens, &s.Cost, &durationMs, &last); err != nil {
			return nil, err
		}
		s.TotalDuration = time.Duration(durationMs) * time.Millisecond
		s.LastUsed = parseDBTime(last)
		result = append(result, s)
	}
	return result, rows.Err()
}

// Daily 最近 days 天（含今天，UTC）每天的用量，按日期升序，没有调用的日期不出现
func (d *Database) Daily(ctx context.Context, days int) ([]DailyUsage, error) {
	if days <= 0 {
		days = 7
	}
	today := d.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))

	q := d.sq.Select("substr(created_at, 1, 10) AS day", "COUNT(*)",
		"COALESCE(SUM(prompt_tokens), 0)", "COALESCE(SUM(completion_tokens), 0)",
		"COALESCE(SUM(cost), 0.0)").
		From("calls").
		Where(sq.GtOrEq{"created_at": formatDBTime(since)}).
		GroupBy("day").
		OrderBy("day")
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("查询每日用量失败: %w", err)
	}
	defer rows.Close()

	var result []DailyUsage
	for rows.Next() {
		var u DailyUsage
		if err := rows.Scan(&u.Day, &u.Calls, &u.PromptTokens, &u.CompletionTokens, &u.Cost); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// RecentRuns 最近的翻译任务，新的在前
func (d *Database) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	q := d.sq.Select("id", "run_id", "file", "language", "provider", "model",
		"total", "tm_hits", "deduplicated", "ai_translated", "tm_learned",
		"input_tokens", "output_tokens", "cache_read_tokens", "cost",
		"duration_ms", "status", "error_message", "created_at").
		From("runs").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit))
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("查询任务记录失败: %w", err)
	}
	defer rows.Close()

	var result []RunRecord
	for rows.Next() {
		var r RunRecord
		var durationMs int64
		var created sql.NullString
		if err := rows.Scan(&r.ID, &r.RunID, &r.File, &r.Language, &r.Provider, &r.Model,
			&r.Total, &r.TMHits, &r.Deduplicated, &r.AITranslated, &r.TMLearned,
			&r.InputTokens, &r.OutputTokens, &r.CacheReadTokens, &r.Cost,
			&durationMs, &r.Status, &r.ErrorMessage, &created); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.CreatedAt = parseDBTime(created)
		result = append(result, r)
	}
	return result, rows.Err()
}

// Overview 账本总览
func (d *Database) Overview(ctx context.Context) (Overview, error) {
	var o Overview

	calls := d.sq.Select("COUNT(*)", "COALESCE(SUM(prompt_tokens), 0)",
		"COALESCE(SUM(completion_tokens), 0)", "COALESCE(SUM(cache_read_tokens), 0)",
		"COALESCE(SUM(cost), 0.0)", "MIN(created_at)", "MAX(created_at)").
		From("calls")
	sqlStr, args, err := calls.ToSql()
	if err != nil {
		return o, err
	}
	var first, last sql.NullString
	if err := d.db.QueryRowContext(ctx, sqlStr, args...).Scan(&o.TotalCalls, &o.PromptTokens,
		&o.CompletionTokens, &o.CacheReadTokens, &o.TotalCost, &first, &last); err != nil {
		return o, fmt.Errorf("查询调用总览失败: %w", err)
	}
	o.FirstCall = parseDBTime(first)
	o.LastCall = parseDBTime(last)

	runs := d.sq.Select("COUNT(*)",
		"COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(total), 0)", "COALESCE(SUM(tm_hits), 0)", "COALESCE(SUM(ai_translated), 0)").
		From("runs")
	sqlStr, args, err = runs.ToSql()
	if err != nil {
		return o, err
	}
	if err := d.db.QueryRowContext(ctx, sqlStr, args...).Scan(&o.TotalRuns, &o.FailedRuns,
		&o.TotalTexts, &o.TMHits, &o.AITranslated); err != nil {
		return o, fmt.Errorf("查询任务总览失败: %w", err)
	}
	return o, nil
}

// Reset 清空所有记录
func (d *Database) Reset(ctx context.Context) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"calls", "runs"} {
		sqlStr, args, err := d.sq.Delete(table).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("清空 %s 失败: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	d.logger.Info("用量记录已清空", zap.String("path", d.filePath))
	return nil
}

func formatDBTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseDBTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
