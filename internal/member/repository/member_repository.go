package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"vach_chat_service/internal/member/domain"
)

// MemberRepository definition get Member info
type MemberRepository interface {
	Migrate(ctx context.Context) error
	CreateUser(ctx context.Context, user *domain.Member) error
	UpdateMemberStatus(ctx context.Context, user *domain.Member) error
	UpdatePassword(ctx context.Context, memberID, hashed string) error
	UpdateProfile(ctx context.Context, memberID string, update domain.ProfileUpdate) (*domain.Member, error)
	DeleteMember(ctx context.Context, memberID string) error
	FindByMember(ctx context.Context, memberQuery *domain.MemberQuery) (*domain.Member, error)
	ListMembers(ctx context.Context, q domain.MemberListQuery) ([]domain.Member, error)
}

type memberRepository struct {
	db *pgxpool.Pool
}

// NewMemberRepository create a MemberRepository
func NewMemberRepository(db *pgxpool.Pool) MemberRepository {
	return &memberRepository{db: db}
}

const memberColumns = "id, member_id, name, email, password, profile_pic, about, status, created_at"

func scanMember(row pgx.Row) (*domain.Member, error) {
	var m domain.Member
	if err := row.Scan(&m.ID, &m.MemberID, &m.Name, &m.Email, &m.Password, &m.ProfilePic, &m.About, &m.Status, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Migrate 建立 member 資料表
func (r *memberRepository) Migrate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS member (
			id          BIGSERIAL PRIMARY KEY,
			member_id   VARCHAR(64)  NOT NULL UNIQUE,
			name        VARCHAR(100) NOT NULL UNIQUE,
			email       VARCHAR(255) NOT NULL UNIQUE,
			password    VARCHAR(255) NOT NULL,
			profile_pic TEXT         NOT NULL DEFAULT '',
			about       VARCHAR(140) NOT NULL DEFAULT '',
			status      SMALLINT     NOT NULL DEFAULT 0,
			created_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`)
	return err
}

func (r *memberRepository) CreateUser(ctx context.Context, member *domain.Member) error {
	row := r.db.QueryRow(ctx,
		"INSERT INTO member(member_id, name, email, password, profile_pic, about) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at",
		member.MemberID, member.Name, member.Email, member.Password, member.ProfilePic, member.About)
	return row.Scan(&member.ID, &member.CreatedAt)
}

func (r *memberRepository) UpdateMemberStatus(ctx context.Context, member *domain.Member) error {
	_, err := r.db.Exec(ctx, "UPDATE member SET status = $1 WHERE member_id = $2", member.Status, member.MemberID)
	return err
}

func (r *memberRepository) UpdatePassword(ctx context.Context, memberID, hashed string) error {
	tag, err := r.db.Exec(ctx, "UPDATE member SET password = $1 WHERE member_id = $2", hashed, memberID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *memberRepository) UpdateProfile(ctx context.Context, memberID string, update domain.ProfileUpdate) (*domain.Member, error) {
	row := r.db.QueryRow(ctx,
		"UPDATE member SET about = COALESCE($1, about), profile_pic = COALESCE($2, profile_pic) WHERE member_id = $3 RETURNING "+memberColumns,
		update.About, update.ProfilePic, memberID)
	return scanMember(row)
}

func (r *memberRepository) DeleteMember(ctx context.Context, memberID string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM member WHERE member_id = $1", memberID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *memberRepository) FindByMember(ctx context.Context, memberQuery *domain.MemberQuery) (*domain.Member, error) {
	queryStr := "SELECT " + memberColumns + " FROM member WHERE 1=1"
	params := []interface{}{}
	paramCount := 1

	if memberQuery.Email != nil {
		queryStr += fmt.Sprintf(" AND LOWER(email) = LOWER($%d)", paramCount)
		params = append(params, *memberQuery.Email)
		paramCount++
	}
	if memberQuery.MemberID != nil {
		queryStr += fmt.Sprintf(" AND member_id = $%d", paramCount)
		params = append(params, *memberQuery.MemberID)
		paramCount++
	}
	if memberQuery.ID != nil {
		queryStr += fmt.Sprintf(" AND id = $%d", paramCount)
		params = append(params, *memberQuery.ID)
		paramCount++
	}
	if memberQuery.Name != nil {
		queryStr += fmt.Sprintf(" AND name = $%d", paramCount)
		params = append(params, *memberQuery.Name)
		paramCount++
	}
	if paramCount == 1 {
		return nil, domain.ErrMemberNotFound
	}

	return scanMember(r.db.QueryRow(ctx, queryStr+" LIMIT 1", params...))
}

// ListMembers 列出除自己以外的使用者, 有 keyword 時比對 name / email
func (r *memberRepository) ListMembers(ctx context.Context, q domain.MemberListQuery) ([]domain.Member, error) {
	queryStr := "SELECT " + memberColumns + " FROM member WHERE member_id <> $1 AND status <> $2"
	params := []interface{}{q.ExcludeMemberID, domain.MemberStatusDelete}

	if q.Keyword != "" {
		queryStr += " AND (name ILIKE $3 OR email ILIKE $3)"
		params = append(params, "%"+q.Keyword+"%")
	}
	queryStr += " ORDER BY name"
	if q.Limit > 0 {
		queryStr += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := r.db.Query(ctx, queryStr, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []domain.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}
