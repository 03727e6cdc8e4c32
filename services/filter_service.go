package services

import (
	"reddit_intent/models"
)

// FilterTree 保留自身合格或至少有一条合格评论的帖子，帖子副本只保留合格评论。
// 阈值非法时返回错误。
func FilterTree(posts []models.ContentNode, threshold models.IntentThreshold) ([]models.ContentNode, error) {
	if err := threshold.Validate(); err != nil {
		return nil, err
	}

	filtered := make([]models.ContentNode, 0)
	for _, post := range posts {
		comments := make([]models.ContentNode, 0)
		for _, comment := range post.Comments {
			if threshold.Qualifies(comment.Assessment) {
				comments = append(comments, comment.Clone())
			}
		}

		if !threshold.Qualifies(post.Assessment) && len(comments) == 0 {
			continue
		}

		kept := post
		kept.Comments = nil
		kept = kept.Clone()
		kept.Comments = comments
		filtered = append(filtered, kept)
	}
	return filtered, nil
}

// CountQualifying 统计在阈值下合格的帖子与评论数
func CountQualifying(posts []models.ContentNode, threshold models.IntentThreshold) int {
	n := 0
	for _, post := range posts {
		if threshold.Qualifies(post.Assessment) {
			n++
		}
		for _, c := range post.Comments {
			if threshold.Qualifies(c.Assessment) {
				n++
			}
		}
	}
	return n
}
