package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/shoplist/api/internal/database"
	"github.com/shoplist/api/internal/metrics"
	"github.com/shoplist/api/internal/models"
	"github.com/shoplist/api/pkg/utils"
)

type testEnv struct {
	DB       *gorm.DB
	Metrics  *metrics.Metrics
	Shopping *ShoppingService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	utils.ConfigureBcryptCost(bcrypt.MinCost)

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	m := metrics.New()
	identity := NewIdentityService(db)
	households := NewHouseholdRegistry(db)
	lists := NewListLedger(db)
	audit := NewAuditService(db, 100)
	t.Cleanup(audit.Close)

	shopping := NewShoppingService(
		identity,
		households,
		lists,
		NewItemLedger(db),
		NewAccessService(db, households, lists, m),
		audit,
		m,
	)
	return &testEnv{DB: db, Metrics: m, Shopping: shopping}
}

func (e *testEnv) register(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := e.Shopping.Identity.Register(context.Background(), RegisterInput{
		Username:        username,
		Email:           username + "@x.com",
		Password:        "pw123456",
		ConfirmPassword: "pw123456",
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) household(t *testing.T, owner uuid.UUID, name string) *models.Household {
	t.Helper()
	household, err := e.Shopping.CreateHousehold(context.Background(), owner, name)
	require.NoError(t, err)
	return household
}

func (e *testEnv) list(t *testing.T, actor, householdID uuid.UUID, name, date string) *models.ShoppingList {
	t.Helper()
	list, err := e.Shopping.CreateList(context.Background(), actor, householdID, ListInput{Name: name, Date: date})
	require.NoError(t, err)
	return list
}

func (e *testEnv) item(t *testing.T, actor, listID uuid.UUID, name string) *models.ShoppingItem {
	t.Helper()
	item, err := e.Shopping.AddItem(context.Background(), actor, listID, ItemInput{Name: name})
	require.NoError(t, err)
	return item
}

func (e *testEnv) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.DB.Model(model).Where(query, args...).Count(&n).Error)
	return n
}
