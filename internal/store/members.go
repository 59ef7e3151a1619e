package store

import (
	"context"

	"harambee/internal/models"
	"harambee/internal/pagination"
)

func (s *gormStore) CreateMember(ctx context.Context, m *models.Member) error {
	return translate(s.conn(ctx).Create(m).Error)
}

func (s *gormStore) GetMember(ctx context.Context, id string) (*models.Member, error) {
	var m models.Member
	if err := s.first(ctx, &m, "id = ?", id); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *gormStore) GetMemberByPhone(ctx context.Context, phone string) (*models.Member, error) {
	var m models.Member
	if err := s.first(ctx, &m, "phone = ?", phone); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *gormStore) MemberCodeExists(ctx context.Context, code string) (bool, error) {
	return s.exists(ctx, &models.Member{}, "member_code = ?", code)
}

func (s *gormStore) ListMembers(ctx context.Context, f MemberFilter, page pagination.PageRequest) ([]models.Member, int64, error) {
	q := s.conn(ctx).Model(&models.Member{})
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("full_name LIKE ? OR phone LIKE ? OR member_code = ?", like, like, f.Search)
	}
	if f.MemberCode != "" {
		q = q.Where("member_code = ?", f.MemberCode)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var members []models.Member
	if err := q.Order("full_name ASC").Scopes(pagination.Paginate(page)).Find(&members).Error; err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (s *gormStore) UpdateMember(ctx context.Context, m *models.Member) error {
	return translate(s.conn(ctx).Save(m).Error)
}

// DeleteMember removes the member together with its memberships and targets.
func (s *gormStore) DeleteMember(ctx context.Context, id string) error {
	return s.WithTx(ctx, func(tx LedgerStore) error {
		t := tx.(*gormStore)
		for _, model := range []any{&models.GroupMember{}, &models.GoalMemberTarget{}, &models.GoalGroupMemberTarget{}} {
			if err := t.conn(ctx).Where("member_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return t.deleteWhere(ctx, &models.Member{}, "id = ?", id)
	})
}

func (s *gormStore) MemberReferenced(ctx context.Context, id string) (bool, error) {
	return s.referenced(ctx, "member_id", id)
}

// referenced reports whether any contribution or pledge points at id via column.
func (s *gormStore) referenced(ctx context.Context, column, id string) (bool, error) {
	for _, model := range []any{&models.Contribution{}, &models.Pledge{}} {
		found, err := s.exists(ctx, model, column+" = ?", id)
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}
