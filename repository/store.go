package repository

import "reddit_intent/models"

// Store 把包级函数包装成监控器需要的存储接口
type Store struct{}

func (Store) SaveCycle(result *models.CycleResult) error { return SaveCycle(result) }

func (Store) SaveResponses(cycleID string, responses []models.ResponseRecord) error {
	return SaveResponses(cycleID, responses)
}

func (Store) GetPromptTemplates() (map[string]string, error) { return GetPromptTemplates() }
