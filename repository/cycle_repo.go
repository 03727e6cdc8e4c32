package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"reddit_intent/db"
	"reddit_intent/models"
)

// SaveCycle 保存监控周期结果，同一 id 重复保存时覆盖
func SaveCycle(result *models.CycleResult) error {
	subs, _ := json.Marshal(result.Subreddits)

	var count int
	err := db.DB.QueryRow(`SELECT COUNT(*) FROM monitor_cycles WHERE id = ?`, result.ID).Scan(&count)
	if err != nil {
		return err
	}

	if count > 0 {
		_, err = db.DB.Exec(`
			UPDATE monitor_cycles
			SET started_at = ?, finished_at = ?, subreddits = ?, min_intent = ?, min_confidence = ?,
				posts_scraped = ?, high_intent_content = ?, responses_generated = ?, messages_sent = ?, error = ?
			WHERE id = ?
		`, result.StartTime.UnixMilli(), result.EndTime.UnixMilli(), string(subs), result.MinIntent, result.MinConfidence,
			result.PostsScraped, result.HighIntentContent, result.ResponsesGenerated, result.MessagesSent, result.Error,
			result.ID)
	} else {
		_, err = db.DB.Exec(`
			INSERT INTO monitor_cycles (id, started_at, finished_at, subreddits, min_intent, min_confidence,
				posts_scraped, high_intent_content, responses_generated, messages_sent, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, result.ID, result.StartTime.UnixMilli(), result.EndTime.UnixMilli(), string(subs), result.MinIntent, result.MinConfidence,
			result.PostsScraped, result.HighIntentContent, result.ResponsesGenerated, result.MessagesSent, result.Error)
	}
	return err
}

// ListCycles 按开始时间倒序返回最近的监控周期
func ListCycles(limit int) ([]models.CycleResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.DB.Query(`
		SELECT id, started_at, finished_at, subreddits, min_intent, min_confidence,
			posts_scraped, high_intent_content, responses_generated, messages_sent, error
		FROM monitor_cycles
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cycles := make([]models.CycleResult, 0)
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// GetCycle 按 id 读取监控周期，不存在时返回 sql.ErrNoRows
func GetCycle(id string) (*models.CycleResult, error) {
	row := db.DB.QueryRow(`
		SELECT id, started_at, finished_at, subreddits, min_intent, min_confidence,
			posts_scraped, high_intent_content, responses_generated, messages_sent, error
		FROM monitor_cycles
		WHERE id = ?
	`, id)
	c, err := scanCycle(row)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCycle(s scanner) (models.CycleResult, error) {
	var (
		c                 models.CycleResult
		started, finished int64
		subs, errText     sql.NullString
	)
	if err := s.Scan(&c.ID, &started, &finished, &subs, &c.MinIntent, &c.MinConfidence,
		&c.PostsScraped, &c.HighIntentContent, &c.ResponsesGenerated, &c.MessagesSent, &errText); err != nil {
		return c, err
	}
	c.StartTime = time.UnixMilli(started)
	c.EndTime = time.UnixMilli(finished)
	c.DurationSeconds = c.EndTime.Sub(c.StartTime).Seconds()
	c.Error = errText.String
	if subs.Valid && subs.String != "" {
		_ = json.Unmarshal([]byte(subs.String), &c.Subreddits)
	}
	return c, nil
}
