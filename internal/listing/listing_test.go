package listing

import (
	"testing"
	"time"

	"quickbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, name(it))
	}
	return out
}

func userName(u *models.User) string { return u.Name }

func TestSorterToggle(t *testing.T) {
	var s Sorter

	s.Toggle("name")
	assert.Equal(t, Sorter{Key: "name"}, s)

	s.Toggle("name")
	assert.Equal(t, Sorter{Key: "name", Desc: true}, s)

	s.Toggle("name")
	assert.False(t, s.Desc)

	s.Toggle("name")
	s.Toggle("email")
	assert.Equal(t, Sorter{Key: "email"}, s)
}

func TestParseSorter(t *testing.T) {
	assert.Equal(t, Sorter{Key: "rating", Desc: true}, ParseSorter("rating", "DESC"))
	assert.Equal(t, Sorter{Key: "rating"}, ParseSorter("rating", ""))
}

func TestApplyStableSort(t *testing.T) {
	users := []*models.User{
		{Name: "Ravi", Role: models.RoleEmployee},
		{Name: "Anita", Role: models.RoleAdmin},
		{Name: "Kiran", Role: models.RoleEmployee},
		{Name: "Meera", Role: models.RoleAdmin},
	}

	asc := Apply(users, nil, Sorter{Key: "role"}, UserKeys)
	assert.Equal(t, []string{"Anita", "Meera", "Ravi", "Kiran"}, names(asc, userName))

	desc := Apply(users, nil, Sorter{Key: "role", Desc: true}, UserKeys)
	assert.Equal(t, []string{"Ravi", "Kiran", "Anita", "Meera"}, names(desc, userName))

	// input untouched
	assert.Equal(t, "Ravi", users[0].Name)
}

func TestApplyUnknownKeyKeepsOrder(t *testing.T) {
	users := []*models.User{{Name: "b"}, {Name: "a"}}
	got := Apply(users, nil, Sorter{Key: "missing"}, UserKeys)
	assert.Equal(t, []string{"b", "a"}, names(got, userName))
}

func TestPredicates(t *testing.T) {
	day := time.Date(2030, time.May, 2, 0, 0, 0, 0, time.UTC)
	res := []*models.Reservation{
		{ID: 1, Title: "Standup", UserName: "Ravi", RoomName: "Everest", Status: models.ReservationConfirmed, Amenities: "projector, table", StartTime: day.Add(10 * time.Hour)},
		{ID: 2, Title: "Retro", UserName: "Anita", RoomName: "K2", Status: models.ReservationCancelled, StartTime: day.Add(11 * time.Hour)},
		{ID: 3, Title: "Planning", UserName: "ravindra", RoomName: "Everest", Status: models.ReservationConfirmed, StartTime: day.AddDate(0, 0, 1).Add(9 * time.Hour)},
	}
	id := func(r *models.Reservation) string { return r.Title }

	t.Run("empty filter matches all", func(t *testing.T) {
		got := Apply(res, ReservationFilter{}.Predicate(), Sorter{}, ReservationKeys)
		assert.Len(t, got, 3)
	})

	t.Run("user substring case-insensitive", func(t *testing.T) {
		got := Apply(res, ReservationFilter{UserName: "RAVI"}.Predicate(), Sorter{}, ReservationKeys)
		assert.Equal(t, []string{"Standup", "Planning"}, names(got, id))
	})

	t.Run("conjunction", func(t *testing.T) {
		f := ReservationFilter{RoomName: "everest", Status: "confirmed", Date: day}
		got := Apply(res, f.Predicate(), Sorter{}, ReservationKeys)
		assert.Equal(t, []string{"Standup"}, names(got, id))
	})

	t.Run("amenity substring", func(t *testing.T) {
		got := Apply(res, ReservationFilter{Amenity: "table"}.Predicate(), Sorter{}, ReservationKeys)
		require.Len(t, got, 1)
		assert.Equal(t, int64(1), got[0].ID)
	})

	t.Run("sort by start desc", func(t *testing.T) {
		got := Apply(res, nil, Sorter{Key: "startTime", Desc: true}, ReservationKeys)
		assert.Equal(t, []string{"Planning", "Retro", "Standup"}, names(got, id))
	})
}

func TestUserFilterExcludesAdmins(t *testing.T) {
	users := []*models.User{
		{Name: "Zoya", Role: models.RoleEmployee},
		{Name: "Admin", Role: models.RoleAdmin},
		{Name: "arjun", Role: models.RoleEmployee, Email: "arjun@kanverse.com"},
	}
	got := Apply(users, UserFilter{ExcludeAdmins: true}.Predicate(), Sorter{Key: "name"}, UserKeys)
	assert.Equal(t, []string{"arjun", "Zoya"}, names(got, userName))

	got = Apply(users, UserFilter{Query: "kanverse"}.Predicate(), Sorter{}, UserKeys)
	assert.Equal(t, []string{"arjun"}, names(got, userName))
}

func TestFeedbackDefaultNewestFirst(t *testing.T) {
	base := time.Date(2030, time.May, 2, 9, 0, 0, 0, time.UTC)
	fbs := []*models.Feedback{
		{ID: 1, Rating: 4, CreatedAt: base},
		{ID: 2, Rating: 5, CreatedAt: base.Add(time.Hour)},
		{ID: 3, Rating: 4, CreatedAt: base.Add(2 * time.Hour)},
	}
	got := Apply(fbs, nil, Sorter{Key: "createdAt", Desc: true}, FeedbackKeys)
	assert.Equal(t, int64(3), got[0].ID)

	byRating := Apply(fbs, nil, Sorter{Key: "rating"}, FeedbackKeys)
	assert.Equal(t, []int64{1, 3, 2}, []int64{byRating[0].ID, byRating[1].ID, byRating[2].ID})
}
