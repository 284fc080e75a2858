package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplist/api/internal/models"
	"github.com/shoplist/api/pkg/utils"
)

func TestAliceAndBobScenario(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	alice := env.register(t, "alice")
	_, err := env.Shopping.Identity.Authenticate(ctx, "alice@x.com", "pw123456")
	require.NoError(t, err)
	_, err = env.Shopping.Identity.Authenticate(ctx, "alice@x.com", "wrongpw")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	home := env.household(t, alice.ID, "Home")
	households, err := env.Shopping.ListHouseholds(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, households, 1)
	assert.Equal(t, "Home", households[0].Name)

	groceries := env.list(t, alice.ID, home.ID, "Groceries", "2024-01-01")
	milk, err := env.Shopping.AddItem(ctx, alice.ID, groceries.ID, ItemInput{Name: "Milk", Category: "Dairy"})
	require.NoError(t, err)

	items, err := env.Shopping.ListItems(ctx, alice.ID, groceries.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Milk", items[0].Name)
	require.NotNil(t, items[0].Category)
	assert.Equal(t, "Dairy", *items[0].Category)
	assert.False(t, items[0].Bought)

	toggled, err := env.Shopping.ToggleBought(ctx, alice.ID, milk.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Bought)
	toggled, err = env.Shopping.ToggleBought(ctx, alice.ID, milk.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Bought)

	bob := env.register(t, "bob")
	_, err = env.Shopping.AddItem(ctx, bob.ID, groceries.ID, ItemInput{Name: "Eggs"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreatorIsMember(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	home := env.household(t, alice.ID, "Home")

	ok, err := env.Shopping.Households.IsMember(ctx, alice.ID, home.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := env.Shopping.GetHousehold(ctx, alice.ID, home.ID)
	require.NoError(t, err)
	require.Len(t, got.Memberships, 1)
	require.NotNil(t, got.Memberships[0].User)
	assert.Equal(t, "alice", got.Memberships[0].User.Username)
}

func TestHouseholdNameValidation(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.register(t, "alice")

	for _, name := range []string{"", " ", "A", string(make([]byte, 101))} {
		_, err := env.Shopping.CreateHousehold(context.Background(), alice.ID, name)
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr), "name %q should be rejected", name)
	}
	assert.Equal(t, int64(0), env.count(t, &models.Household{}, "1 = 1"))
}

func TestNonMemberIsForbiddenEverywhere(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	home := env.household(t, alice.ID, "Home")
	list := env.list(t, alice.ID, home.ID, "Groceries", "2024-01-01")
	item := env.item(t, alice.ID, list.ID, "Milk")

	ops := map[string]func() error{
		"get household": func() error { _, err := env.Shopping.GetHousehold(ctx, bob.ID, home.ID); return err },
		"delete household": func() error { return env.Shopping.DeleteHousehold(ctx, bob.ID, home.ID) },
		"add member": func() error { _, err := env.Shopping.AddMember(ctx, bob.ID, home.ID, "bob@x.com"); return err },
		"leave": func() error { _, err := env.Shopping.LeaveHousehold(ctx, bob.ID, home.ID); return err },
		"activity": func() error {
			_, _, err := env.Shopping.HouseholdActivity(ctx, bob.ID, home.ID, utils.NewPagination(1, 20))
			return err
		},
		"create list": func() error {
			_, err := env.Shopping.CreateList(ctx, bob.ID, home.ID, ListInput{Name: "Mine", Date: "2024-01-02"})
			return err
		},
		"list lists":  func() error { _, err := env.Shopping.ListLists(ctx, bob.ID, home.ID); return err },
		"get list":    func() error { _, err := env.Shopping.GetList(ctx, bob.ID, list.ID); return err },
		"delete list": func() error { return env.Shopping.DeleteList(ctx, bob.ID, list.ID) },
		"add item":    func() error { _, err := env.Shopping.AddItem(ctx, bob.ID, list.ID, ItemInput{Name: "Eggs"}); return err },
		"list items":  func() error { _, err := env.Shopping.ListItems(ctx, bob.ID, list.ID); return err },
		"edit item": func() error {
			_, err := env.Shopping.EditItem(ctx, bob.ID, item.ID, ItemInput{Name: "Oat milk"}, false)
			return err
		},
		"patch item": func() error {
			name := "Oat milk"
			_, err := env.Shopping.PatchItem(ctx, bob.ID, item.ID, ItemPatch{Name: &name})
			return err
		},
		"toggle item": func() error { _, err := env.Shopping.ToggleBought(ctx, bob.ID, item.ID); return err },
		"delete item": func() error { return env.Shopping.DeleteItem(ctx, bob.ID, item.ID) },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, op(), ErrForbidden)
		})
	}

	// Nothing changed.
	got, err := env.Shopping.Items.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Milk", got.Name)
	assert.False(t, got.Bought)
	assert.Equal(t, int64(1), env.count(t, &models.ShoppingList{}, "household_id = ?", home.ID))
	assert.Greater(t, testutil.ToFloat64(env.Metrics.AccessDenied.WithLabelValues("item")), 0.0)
}

func TestMissingEntitiesAreNotFound(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	missing := uuid.New()

	_, err := env.Shopping.GetHousehold(ctx, alice.ID, missing)
	assert.EqualError(t, err, "household not found")
	_, err = env.Shopping.ListItems(ctx, alice.ID, missing)
	assert.EqualError(t, err, "shopping list not found")
	_, err = env.Shopping.ToggleBought(ctx, alice.ID, missing)
	assert.EqualError(t, err, "item not found")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteHouseholdCascades(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	home := env.household(t, alice.ID, "Home")
	_, err := env.Shopping.AddMember(ctx, alice.ID, home.ID, "bob@x.com")
	require.NoError(t, err)
	weekly := env.list(t, alice.ID, home.ID, "Weekly", "2024-01-01")
	party := env.list(t, bob.ID, home.ID, "Party", "2024-02-01")
	milk := env.item(t, alice.ID, weekly.ID, "Milk")
	env.item(t, bob.ID, party.ID, "Chips")

	other := env.household(t, alice.ID, "Cabin")
	otherList := env.list(t, alice.ID, other.ID, "Cabin run", "2024-03-01")
	env.item(t, alice.ID, otherList.ID, "Firewood")

	require.NoError(t, env.Shopping.DeleteHousehold(ctx, bob.ID, home.ID))

	// The deletion row is written before DeleteHousehold returns.
	var deletion models.AuditLog
	require.NoError(t, env.DB.Where("action = ? AND household_id = ?", ActionHouseholdDelete, home.ID).First(&deletion).Error)
	require.NotNil(t, deletion.UserID)
	assert.Equal(t, bob.ID, *deletion.UserID)

	assert.Equal(t, int64(0), env.count(t, &models.Household{}, "id = ?", home.ID))
	assert.Equal(t, int64(0), env.count(t, &models.HouseholdMembership{}, "household_id = ?", home.ID))
	assert.Equal(t, int64(0), env.count(t, &models.ShoppingList{}, "household_id = ?", home.ID))
	assert.Equal(t, int64(0), env.count(t, &models.ShoppingItem{}, "shopping_list_id IN ?", []uuid.UUID{weekly.ID, party.ID}))

	_, err = env.Shopping.Items.Get(ctx, milk.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The other household is untouched.
	assert.Equal(t, int64(1), env.count(t, &models.ShoppingList{}, "household_id = ?", other.ID))
	assert.Equal(t, int64(1), env.count(t, &models.ShoppingItem{}, "shopping_list_id = ?", otherList.ID))
}

func TestDeleteListCascades(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	home := env.household(t, alice.ID, "Home")
	list := env.list(t, alice.ID, home.ID, "Weekly", "2024-01-01")
	env.item(t, alice.ID, list.ID, "Milk")
	env.item(t, alice.ID, list.ID, "Bread")

	require.NoError(t, env.Shopping.DeleteList(ctx, alice.ID, list.ID))
	assert.Equal(t, int64(0), env.count(t, &models.ShoppingItem{}, "shopping_list_id = ?", list.ID))

	err := env.Shopping.DeleteList(ctx, alice.ID, list.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrdering(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	home := env.household(t, alice.ID, "Home")

	env.list(t, alice.ID, home.ID, "Old", "2023-12-31")
	env.list(t, alice.ID, home.ID, "Newest", "2024-06-01")
	env.list(t, alice.ID, home.ID, "Same day first", "2024-01-01")
	time.Sleep(2 * time.Millisecond)
	env.list(t, alice.ID, home.ID, "Same day second", "2024-01-01")

	lists, err := env.Shopping.ListLists(ctx, alice.ID, home.ID)
	require.NoError(t, err)

	names := make([]string, len(lists))
	for i, l := range lists {
		names[i] = l.Name
	}
	assert.Equal(t, []string{"Newest", "Same day second", "Same day first", "Old"}, names)
	assert.Equal(t, "2024-06-01", lists[0].Date.String())
}

func TestListValidation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	home := env.household(t, alice.ID, "Home")

	tests := []struct {
		name  string
		in    ListInput
		field string
	}{
		{"missing name", ListInput{Date: "2024-01-01"}, "name"},
		{"short name", ListInput{Name: "A", Date: "2024-01-01"}, "name"},
		{"missing date", ListInput{Name: "Weekly"}, "date"},
		{"bad format", ListInput{Name: "Weekly", Date: "01/02/2024"}, "date"},
		{"impossible date", ListInput{Name: "Weekly", Date: "2024-02-30"}, "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Shopping.CreateList(ctx, alice.ID, home.ID, tt.in)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	list, err := env.Shopping.CreateList(ctx, alice.ID, home.ID, ListInput{Name: "Leap", Date: "2024-02-29"})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", list.Date.String())
}

func TestItemOrdering(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	home := env.household(t, alice.ID, "Home")
	list := env.list(t, alice.ID, home.ID, "Weekly", "2024-01-01")

	apples := env.item(t, alice.ID, list.ID, "Apples")
	env.item(t, alice.ID, list.ID, "Milk")
	env.item(t, alice.ID, list.ID, "Bread")
	cheese := env.item(t, alice.ID, list.ID, "Cheese")

	_, err := env.Shopping.ToggleBought(ctx, alice.ID, apples.ID)
	require.NoError(t, err)
	_, err = env.Shopping.ToggleBought(ctx, alice.ID, cheese.ID)
	require.NoError(t, err)

	items, err := env.Shopping.ListItems(ctx, alice.ID, list.ID)
	require.NoError(t, err)

	var got []string
	for _, item := range items {
		got = append(got, item.Name)
	}
	assert.Equal(t, []string{"Bread", "Milk", "Apples", "Cheese"}, got)
}

func TestItemValidation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	home := env.household(t, alice.ID, "Home")
	list := env.list(t, alice.ID, home.ID, "Weekly", "2024-01-01")

	long := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = 'x'
		}
		return string(b)
	}

	tests := []struct {
		name  string
		in    ItemInput
		field string
	}{
		{"blank name", ItemInput{Name: "   "}, "name"},
		{"long name", ItemInput{Name: long(101)}, "name"},
		{"long category", ItemInput{Name: "Milk", Category: long(51)}, "category"},
		{"long amount", ItemInput{Name: "Milk", Amount: long(51)}, "amount"},
		{"long notes", ItemInput{Name: "Milk", Notes: long(201)}, "notes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Shopping.AddItem(ctx, alice.ID, list.ID, tt.in)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	item, err := env.Shopping.AddItem(ctx, alice.ID, list.ID, ItemInput{Name: "  Milk ", Category: " ", Amount: "2 l", Notes: long(200)})
	require.NoError(t, err)
	assert.Equal(t, "Milk", item.Name)
	assert.Nil(t, item.Category)
	require.NotNil(t, item.Amount)
	assert.Equal(t, "2 l", *item.Amount)
	assert.False(t, item.Bought)
}

func TestEditItemReplacesAllFields(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	home := env.household(t, alice.ID, "Home")
	list := env.list(t, alice.ID, home.ID, "Weekly", "2024-01-01")

	item, err := env.Shopping.AddItem(ctx, alice.ID, list.ID, ItemInput{Name: "Milk", Category: "Dairy", Amount: "2", Notes: "semi"})
	require.NoError(t, err)

	updated, err := env.Shopping.EditItem(ctx, alice.ID, item.ID, ItemInput{Name: "Oat milk"}, true)
	require.NoError(t, err)
	assert.Equal(t, "Oat milk", updated.Name)
	assert.True(t, updated.Bought)

	stored, err := env.Shopping.Items.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Oat milk", stored.Name)
	assert.Nil(t, stored.Category)
	assert.Nil(t, stored.Amount)
	assert.Nil(t, stored.Notes)
	assert.True(t, stored.Bought)
}

func TestPatchItemKeepsOmittedFields(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	home := env.household(t, alice.ID, "Home")
	list := env.list(t, alice.ID, home.ID, "Weekly", "2024-01-01")

	item, err := env.Shopping.AddItem(ctx, alice.ID, list.ID, ItemInput{Name: "Milk", Category: "Dairy", Amount: "2"})
	require.NoError(t, err)

	amount := "3"
	bought := true
	patched, err := env.Shopping.PatchItem(ctx, alice.ID, item.ID, ItemPatch{Amount: &amount, Bought: &bought})
	require.NoError(t, err)
	assert.Equal(t, "Milk", patched.Name)
	require.NotNil(t, patched.Category)
	assert.Equal(t, "Dairy", *patched.Category)
	assert.Equal(t, "3", *patched.Amount)
	assert.True(t, patched.Bought)

	empty := ""
	patched, err = env.Shopping.PatchItem(ctx, alice.ID, item.ID, ItemPatch{Category: &empty})
	require.NoError(t, err)
	assert.Nil(t, patched.Category)

	_, err = env.Shopping.PatchItem(ctx, alice.ID, item.ID, ItemPatch{Name: &empty})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestToggleRoundTrip(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	home := env.household(t, alice.ID, "Home")
	list := env.list(t, alice.ID, home.ID, "Weekly", "2024-01-01")

	for _, start := range []bool{false, true} {
		item := env.item(t, alice.ID, list.ID, "Milk")
		if start {
			_, err := env.Shopping.ToggleBought(ctx, alice.ID, item.ID)
			require.NoError(t, err)
		}

		_, err := env.Shopping.ToggleBought(ctx, alice.ID, item.ID)
		require.NoError(t, err)
		back, err := env.Shopping.ToggleBought(ctx, alice.ID, item.ID)
		require.NoError(t, err)
		assert.Equal(t, start, back.Bought)
	}
}

func TestMembership(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	home := env.household(t, alice.ID, "Home")
	list := env.list(t, alice.ID, home.ID, "Weekly", "2024-01-01")

	added, err := env.Shopping.AddMember(ctx, alice.ID, home.ID, "BOB@x.com")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, added.ID)

	_, err = env.Shopping.AddMember(ctx, alice.ID, home.ID, "bob@x.com")
	assert.ErrorIs(t, err, ErrAlreadyMember)
	_, err = env.Shopping.AddMember(ctx, alice.ID, home.ID, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	// Bob now sees the household and can work on its lists.
	households, err := env.Shopping.ListHouseholds(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, households, 1)
	env.item(t, bob.ID, list.ID, "Eggs")

	deleted, err := env.Shopping.LeaveHousehold(ctx, bob.ID, home.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	_, err = env.Shopping.ListItems(ctx, bob.ID, list.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	deleted, err = env.Shopping.LeaveHousehold(ctx, alice.ID, home.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, int64(0), env.count(t, &models.Household{}, "id = ?", home.ID))
	assert.Equal(t, int64(0), env.count(t, &models.ShoppingList{}, "id = ?", list.ID))
}

func TestListHouseholdsOnlyReturnsOwn(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	env.household(t, alice.ID, "Home")
	env.household(t, bob.ID, "Flat")
	env.household(t, alice.ID, "Cabin")

	households, err := env.Shopping.ListHouseholds(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, households, 2)
	assert.Equal(t, "Home", households[0].Name)
	assert.Equal(t, "Cabin", households[1].Name)
}

func TestHouseholdActivity(t *testing.T) {
	env := setupTestEnv(t)
	ctx := WithRequestMeta(context.Background(), "10.0.0.1", "req-1")
	alice := env.register(t, "alice")
	home := env.household(t, alice.ID, "Home")

	list, err := env.Shopping.CreateList(ctx, alice.ID, home.ID, ListInput{Name: "Weekly", Date: "2024-01-01"})
	require.NoError(t, err)
	item, err := env.Shopping.AddItem(ctx, alice.ID, list.ID, ItemInput{Name: "Milk"})
	require.NoError(t, err)
	_, err = env.Shopping.ToggleBought(ctx, alice.ID, item.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return env.count(t, &models.AuditLog{}, "household_id = ?", home.ID) == 4
	}, 2*time.Second, 10*time.Millisecond)

	logs, total, err := env.Shopping.HouseholdActivity(ctx, alice.ID, home.ID, utils.NewPagination(1, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, logs, 2)
	assert.Equal(t, ActionItemToggle, logs[0].Action)
	assert.Equal(t, "10.0.0.1", logs[0].IPAddress)
	assert.Equal(t, "req-1", logs[0].RequestID)
	assert.Equal(t, true, logs[0].Details["bought"])
}

func TestCreationMetrics(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.register(t, "alice")
	home := env.household(t, alice.ID, "Home")
	list := env.list(t, alice.ID, home.ID, "Weekly", "2024-01-01")
	env.item(t, alice.ID, list.ID, "Milk")

	assert.Equal(t, 1.0, testutil.ToFloat64(env.Metrics.HouseholdsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.Metrics.ListsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.Metrics.ItemsCreated))
}
