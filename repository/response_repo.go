package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reddit_intent/db"
	"reddit_intent/logger"
	"reddit_intent/models"
)

// SaveResponses 在一个事务中保存某个周期生成的全部私信，seq 保留生成顺序
func SaveResponses(cycleID string, responses []models.ResponseRecord) error {
	tx, err := db.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO intent_responses (id, cycle_id, seq, source_id, content_kind, author, subreddit, category,
			subject, message, products_services, include_resources, sent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range responses {
		products := []byte("[]")
		if len(r.ProductsServices) > 0 {
			if products, err = json.Marshal(r.ProductsServices); err != nil {
				return fmt.Errorf("encode products for response %d: %w", i, err)
			}
		}
		if _, err := stmt.Exec(r.ID, cycleID, i, r.SourceID, string(r.ContentKind), r.Author, r.Subreddit, r.Category.String(),
			r.Subject, r.Message, string(products), boolToInt(r.IncludeResources), boolToInt(r.Sent), r.CreatedAt.UnixMilli()); err != nil {
			return fmt.Errorf("insert response %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// ListResponses 返回某个周期的私信；cycleID 为空时返回最近一个有私信的周期
func ListResponses(cycleID string) ([]models.ResponseRecord, error) {
	if cycleID == "" {
		err := db.DB.QueryRow(`
			SELECT cycle_id FROM intent_responses
			ORDER BY created_at DESC, cycle_id DESC
			LIMIT 1
		`).Scan(&cycleID)
		if errors.Is(err, sql.ErrNoRows) {
			return make([]models.ResponseRecord, 0), nil
		}
		if err != nil {
			return nil, err
		}
	}

	rows, err := db.DB.Query(`
		SELECT id, cycle_id, source_id, content_kind, author, subreddit, category,
			subject, message, products_services, include_resources, sent, created_at
		FROM intent_responses
		WHERE cycle_id = ?
		ORDER BY seq ASC
	`, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := make([]models.ResponseRecord, 0)
	for rows.Next() {
		var (
			r                       models.ResponseRecord
			kind, category          string
			subreddit, subject, msg sql.NullString
			products                sql.NullString
			includeResources, sent  int
			created                 int64
		)
		if err := rows.Scan(&r.ID, &r.CycleID, &r.SourceID, &kind, &r.Author, &subreddit, &category,
			&subject, &msg, &products, &includeResources, &sent, &created); err != nil {
			return nil, err
		}
		r.ContentKind = models.ContentKind(kind)
		r.Category, _ = models.ParseCategory(category)
		r.Subreddit = subreddit.String
		r.Subject = subject.String
		r.Message = msg.String
		r.IncludeResources = includeResources != 0
		r.Sent = sent != 0
		r.CreatedAt = time.UnixMilli(created)
		if products.Valid && products.String != "" {
			if err := json.Unmarshal([]byte(products.String), &r.ProductsServices); err != nil {
				logger.Warn("Failed to decode products_services", "response_id", r.ID, "error", err)
			}
		}
		if r.ProductsServices == nil {
			r.ProductsServices = make([]string, 0)
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// MarkResponseSent 标记私信已发送，返回是否有记录被更新
func MarkResponseSent(id string) (bool, error) {
	res, err := db.DB.Exec(`UPDATE intent_responses SET sent = 1 WHERE id = ? AND sent = 0`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetResponse 按 id 读取私信，不存在时返回 sql.ErrNoRows
func GetResponse(id string) (*models.ResponseRecord, error) {
	var cycleID string
	if err := db.DB.QueryRow(`SELECT cycle_id FROM intent_responses WHERE id = ?`, id).Scan(&cycleID); err != nil {
		return nil, err
	}
	responses, err := ListResponses(cycleID)
	if err != nil {
		return nil, err
	}
	for i := range responses {
		if responses[i].ID == id {
			return &responses[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
