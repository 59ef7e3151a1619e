package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	apperrors "harambee/internal/errors"
	"harambee/internal/logger"
	"harambee/internal/models"
	"harambee/internal/pagination"
	"harambee/internal/store"

	"gorm.io/datatypes"
)

const maxMemberCodeAttempts = 5

// memberService handles member registration and maintenance.
type memberService struct {
	store   store.LedgerStore
	newCode func() (string, error)
}

// NewMemberService creates a new MemberServicer.
func NewMemberService(st store.LedgerStore) MemberServicer {
	return &memberService{store: st, newCode: randomMemberCode}
}

// randomMemberCode returns a uniformly random zero-padded 6-digit code.
func randomMemberCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", models.MemberCodeLength, n.Int64()), nil
}

// CreateMember registers a member and allocates a unique member code,
// regenerating on collision up to maxMemberCodeAttempts times.
func (s *memberService) CreateMember(ctx context.Context, actorID string, in CreateMemberInput) (*models.Member, error) {
	fullName := strings.TrimSpace(in.FullName)
	phone := strings.TrimSpace(in.Phone)
	if fullName == "" || phone == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "full name and phone are required")
	}

	if err := s.ensurePhoneFree(ctx, phone, ""); err != nil {
		return nil, err
	}

	aliases := in.Aliases
	if aliases == nil {
		aliases = []string{}
	}

	for attempt := 1; attempt <= maxMemberCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		taken, err := s.store.MemberCodeExists(ctx, code)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if taken {
			logger.Get().Debugw("member code collision", "attempt", attempt)
			continue
		}

		member := &models.Member{
			FullName:    fullName,
			Phone:       phone,
			Email:       in.Email,
			Aliases:     datatypes.JSONSlice[string](aliases),
			MemberCode:  code,
			IsActive:    true,
			CreatedByID: actorID,
		}
		err = s.store.CreateMember(ctx, member)
		if err == nil {
			return member, nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		// Either the phone or the code was taken concurrently.
		if perr := s.ensurePhoneFree(ctx, phone, ""); perr != nil {
			return nil, perr
		}
	}

	logger.Get().Warnw("exhausted member code attempts", "attempts", maxMemberCodeAttempts, "phone", phone)
	return nil, apperrors.ErrMemberCodeConflict
}

// ensurePhoneFree fails with DUPLICATE_PHONE when another member owns phone.
func (s *memberService) ensurePhoneFree(ctx context.Context, phone, exceptID string) error {
	existing, err := s.store.GetMemberByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if existing.ID != exceptID {
		return apperrors.ErrDuplicatePhone
	}
	return nil
}

// GetMember returns a member by ID.
func (s *memberService) GetMember(ctx context.Context, id string) (*models.Member, error) {
	return loadMember(ctx, s.store, id)
}

// ListMembers returns a page of members matching filter.
func (s *memberService) ListMembers(ctx context.Context, filter store.MemberFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Member], error) {
	page.Defaults()
	members, total, err := s.store.ListMembers(ctx, filter, page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	result := pagination.NewPageResponse(members, page.Page, page.PageSize, total)
	return &result, nil
}

// UpdateMember applies the supplied fields only.
func (s *memberService) UpdateMember(ctx context.Context, id string, in UpdateMemberInput) (*models.Member, error) {
	member, err := loadMember(ctx, s.store, id)
	if err != nil {
		return nil, err
	}

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "full name cannot be empty")
		}
		member.FullName = name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "phone cannot be empty")
		}
		if phone != member.Phone {
			if err := s.ensurePhoneFree(ctx, phone, member.ID); err != nil {
				return nil, err
			}
			member.Phone = phone
		}
	}
	if in.Email != nil {
		member.Email = in.Email
	}
	if in.Aliases != nil {
		member.Aliases = datatypes.JSONSlice[string](in.Aliases)
	}
	if in.IsActive != nil {
		member.IsActive = *in.IsActive
	}

	if err := s.store.UpdateMember(ctx, member); err != nil {
		return nil, storeErr(err, apperrors.ErrMemberNotFound, apperrors.ErrDuplicatePhone)
	}
	return member, nil
}

// DeleteMember removes a member that no contribution or pledge references.
// Group memberships and targets for the member are removed with it.
func (s *memberService) DeleteMember(ctx context.Context, id string) error {
	if _, err := loadMember(ctx, s.store, id); err != nil {
		return err
	}
	inUse, err := s.store.MemberReferenced(ctx, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse {
		return apperrors.ErrMemberInUse
	}
	return storeErr(s.store.DeleteMember(ctx, id), apperrors.ErrMemberNotFound, nil)
}

// ListNotifications returns the delivery history for a member, newest first.
func (s *memberService) ListNotifications(ctx context.Context, memberID string, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error) {
	if _, err := loadMember(ctx, s.store, memberID); err != nil {
		return nil, err
	}
	page.Defaults()
	notifications, total, err := s.store.ListNotifications(ctx, memberID, page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	result := pagination.NewPageResponse(notifications, page.Page, page.PageSize, total)
	return &result, nil
}
