package app

import (
	"context"
	"errors"

	memberapp "vach_chat_service/internal/member/app"
	memberdomain "vach_chat_service/internal/member/domain"
)

// MemberDirectory identity lookups used by the chat core
type MemberDirectory interface {
	Exists(ctx context.Context, memberID string) (bool, error)
	Find(ctx context.Context, memberID string) (*memberdomain.Member, error)
	List(ctx context.Context, q memberdomain.MemberListQuery) ([]memberdomain.Member, error)
}

type memberDirectory struct {
	memberUC memberapp.MemberUseCase
}

// NewMemberDirectory directory backed by the member use case
func NewMemberDirectory(uc memberapp.MemberUseCase) MemberDirectory {
	return &memberDirectory{memberUC: uc}
}

func (d *memberDirectory) Exists(ctx context.Context, memberID string) (bool, error) {
	if _, err := d.Find(ctx, memberID); err != nil {
		if errors.Is(err, memberdomain.ErrMemberNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d *memberDirectory) Find(ctx context.Context, memberID string) (*memberdomain.Member, error) {
	return d.memberUC.FindMember(ctx, &memberdomain.MemberQuery{MemberID: &memberID})
}

func (d *memberDirectory) List(ctx context.Context, q memberdomain.MemberListQuery) ([]memberdomain.Member, error) {
	return d.memberUC.ListMembers(ctx, q)
}
