package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"vach_chat_service/internal/member/domain"
	"vach_chat_service/internal/member/repository"
	"vach_chat_service/pkg/database"
	"vach_chat_service/pkg/logger"
	testtool "vach_chat_service/pkg/test_tool"
	token "vach_chat_service/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// 需要 docker, INTEGRATION=1 才會執行
func TestMemberUseCase_Integration(t *testing.T) {
	testtool.SkipUnlessIntegration(t)
	logger.SetNewNop()
	token.Configure("integration_secret", time.Hour, "test")
	ctx := context.Background()

	pgContainer, pgHost, pgPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image: "postgres:16-alpine",
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	})
	require.NoError(t, err)
	defer pgContainer.Terminate(ctx)

	redisContainer, redisHost, redisPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	require.NoError(t, err)
	defer redisContainer.Terminate(ctx)

	pool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", pgHost, pgPort),
		RetryCount:    5,
		RetryInterval: time.Second,
	})
	require.NoError(t, err)
	defer pool.Close()

	rdb, err := database.NewRedisClient("", nil, fmt.Sprintf("%s:%s", redisHost, redisPort), 0)
	require.NoError(t, err)
	defer rdb.Close()

	repo := repository.NewMemberRepository(pool)
	require.NoError(t, repo.Migrate(ctx))

	uc := NewMemberUseCase(repo, time.Hour, database.NewRedisRepository[domain.MemberSession](rdb), assistantID)

	alice, err := uc.Register(ctx, "Alice", "alice@example.com", "Secret1")
	require.NoError(t, err)
	_, err = uc.Register(ctx, "Bob", "bob@example.com", "Secret1")
	require.NoError(t, err)

	_, err = uc.Register(ctx, "Alice", "other@example.com", "Secret1")
	assert.ErrorIs(t, err, domain.ErrNameExists)

	tk, member, err := uc.Login(ctx, "ALICE@example.com", "Secret1")
	require.NoError(t, err)
	assert.Equal(t, alice.MemberID, member.MemberID)
	assert.NoError(t, uc.ValidateSession(ctx, alice.MemberID, tk))

	peers, err := uc.ListMembers(ctx, domain.MemberListQuery{ExcludeMemberID: alice.MemberID})
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, "Bob", peers[0].Name)

	found, err := uc.ListMembers(ctx, domain.MemberListQuery{ExcludeMemberID: alice.MemberID, Keyword: "BOB@"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	updated, err := uc.UpdateAbout(ctx, alice.MemberID, "Busy")
	require.NoError(t, err)
	assert.Equal(t, "Busy", updated.About)

	require.NoError(t, uc.Logout(ctx, alice.MemberID))
	assert.ErrorIs(t, uc.ValidateSession(ctx, alice.MemberID, tk), ErrSessionExpired)

	require.NoError(t, uc.DeleteAccount(ctx, alice.MemberID, "Secret1"))
	_, err = uc.FindMember(ctx, &domain.MemberQuery{MemberID: &alice.MemberID})
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
}
