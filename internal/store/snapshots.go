package store

import (
	"context"

	"harambee/internal/models"
	"harambee/internal/pagination"
)

func (s *gormStore) CreateSnapshot(ctx context.Context, snap *models.GoalProgressSnapshot) error {
	return translate(s.conn(ctx).Create(snap).Error)
}

func (s *gormStore) ListSnapshots(ctx context.Context, goalID string, page pagination.PageRequest) ([]models.GoalProgressSnapshot, int64, error) {
	q := s.conn(ctx).Model(&models.GoalProgressSnapshot{}).Where("goal_id = ?", goalID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var snaps []models.GoalProgressSnapshot
	if err := q.Order("captured_at DESC").Scopes(pagination.Paginate(page)).Find(&snaps).Error; err != nil {
		return nil, 0, err
	}
	return snaps, total, nil
}

func (s *gormStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	return translate(s.conn(ctx).Create(n).Error)
}

func (s *gormStore) ListNotifications(ctx context.Context, memberID string, page pagination.PageRequest) ([]models.Notification, int64, error) {
	q := s.conn(ctx).Model(&models.Notification{}).Where("member_id = ?", memberID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var notifications []models.Notification
	if err := q.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}
