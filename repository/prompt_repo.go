package repository

import (
	"time"

	"reddit_intent/db"
)

// SavePromptTemplate 保存运营自定义的提示词模板
func SavePromptTemplate(kind, template string) error {
	now := time.Now().UnixMilli()

	var count int
	err := db.DB.QueryRow(`SELECT COUNT(*) FROM prompt_templates WHERE kind = ?`, kind).Scan(&count)
	if err != nil {
		return err
	}

	if count > 0 {
		_, err = db.DB.Exec(`UPDATE prompt_templates SET template = ?, updated_at = ? WHERE kind = ?`, template, now, kind)
	} else {
		_, err = db.DB.Exec(`INSERT INTO prompt_templates (kind, template, updated_at) VALUES (?, ?, ?)`, kind, template, now)
	}
	return err
}

// GetPromptTemplate 读取模板，未保存过时返回 sql.ErrNoRows
func GetPromptTemplate(kind string) (string, error) {
	var template string
	err := db.DB.QueryRow(`SELECT template FROM prompt_templates WHERE kind = ?`, kind).Scan(&template)
	return template, err
}

// DeletePromptTemplate 删除自定义模板，之后回落到内置提示词
func DeletePromptTemplate(kind string) error {
	_, err := db.DB.Exec(`DELETE FROM prompt_templates WHERE kind = ?`, kind)
	return err
}

// GetPromptTemplates 返回全部已保存的模板，key 为模板类型
func GetPromptTemplates() (map[string]string, error) {
	rows, err := db.DB.Query(`SELECT kind, template FROM prompt_templates`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make(map[string]string)
	for rows.Next() {
		var kind, template string
		if err := rows.Scan(&kind, &template); err != nil {
			continue
		}
		templates[kind] = template
	}
	return templates, rows.Err()
}
