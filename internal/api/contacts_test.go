package api

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"file_portal/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func address(city string, isDefault bool) gin.H {
	return gin.H{"street": "1 Main", "city": city, "state": "S", "postal_code": "12345", "country": "C", "is_default": isDefault}
}

func countFlagged(t *testing.T, db *gorm.DB, model any, column string, userID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where("user_id = ? AND "+column+" = ?", userID, true).Count(&n).Error)
	return n
}

func TestAddressDefaultMovesToNewestFlagged(t *testing.T) {
	e := newTestEnv(t)
	user, auth := e.createUser(t, "alice", "")

	w := e.do(t, http.MethodPost, "/api/addresses", auth, address("X", true))
	requireStatus(t, w, http.StatusCreated)
	x := decode[AddressResponse](t, w)
	assert.True(t, x.IsDefault)

	w = e.do(t, http.MethodPost, "/api/addresses", auth, address("Y", true))
	requireStatus(t, w, http.StatusCreated)
	y := decode[AddressResponse](t, w)

	w = e.do(t, http.MethodGet, fmt.Sprintf("/api/addresses/%d", x.ID), auth, nil)
	requireStatus(t, w, http.StatusOK)
	assert.False(t, decode[AddressResponse](t, w).IsDefault, "X lost the default flag")
	w = e.do(t, http.MethodGet, fmt.Sprintf("/api/addresses/%d", y.ID), auth, nil)
	assert.True(t, decode[AddressResponse](t, w).IsDefault)
	assert.EqualValues(t, 1, countFlagged(t, e.db, &domain.Address{}, "is_default", user.ID))

	// A non-default create leaves the current default alone
	requireStatus(t, e.do(t, http.MethodPost, "/api/addresses", auth, address("Z", false)), http.StatusCreated)
	w = e.do(t, http.MethodGet, fmt.Sprintf("/api/addresses/%d", y.ID), auth, nil)
	assert.True(t, decode[AddressResponse](t, w).IsDefault)

	// Setting the flag through PATCH moves it back to X
	w = e.do(t, http.MethodPatch, fmt.Sprintf("/api/addresses/%d", x.ID), auth, gin.H{"is_default": true})
	requireStatus(t, w, http.StatusOK)
	assert.True(t, decode[AddressResponse](t, w).IsDefault)
	w = e.do(t, http.MethodGet, fmt.Sprintf("/api/addresses/%d", y.ID), auth, nil)
	assert.False(t, decode[AddressResponse](t, w).IsDefault)
	assert.EqualValues(t, 1, countFlagged(t, e.db, &domain.Address{}, "is_default", user.ID))

	// PUT without is_default keeps the flag; PUT with true moves it
	body := address("X2", false)
	delete(body, "is_default")
	w = e.do(t, http.MethodPut, fmt.Sprintf("/api/addresses/%d", x.ID), auth, body)
	requireStatus(t, w, http.StatusOK)
	updated := decode[AddressResponse](t, w)
	assert.Equal(t, "X2", updated.City)
	assert.True(t, updated.IsDefault)

	requireStatus(t, e.do(t, http.MethodPut, fmt.Sprintf("/api/addresses/%d", y.ID), auth, address("Y2", true)), http.StatusOK)
	assert.EqualValues(t, 1, countFlagged(t, e.db, &domain.Address{}, "is_default", user.ID))

	// Clearing the flag may leave zero defaults
	requireStatus(t, e.do(t, http.MethodPatch, fmt.Sprintf("/api/addresses/%d", y.ID), auth, gin.H{"is_default": false}), http.StatusOK)
	assert.EqualValues(t, 0, countFlagged(t, e.db, &domain.Address{}, "is_default", user.ID))

	w = e.do(t, http.MethodGet, "/api/addresses", auth, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Len(t, decode[[]AddressResponse](t, w), 3)
}

func TestDefaultFlagIsPerOwner(t *testing.T) {
	e := newTestEnv(t)
	alice, aliceAuth := e.createUser(t, "alice", "")
	bob, bobAuth := e.createUser(t, "bob", "")

	requireStatus(t, e.do(t, http.MethodPost, "/api/addresses", aliceAuth, address("X", true)), http.StatusCreated)
	requireStatus(t, e.do(t, http.MethodPost, "/api/addresses", bobAuth, address("Y", true)), http.StatusCreated)

	assert.EqualValues(t, 1, countFlagged(t, e.db, &domain.Address{}, "is_default", alice.ID))
	assert.EqualValues(t, 1, countFlagged(t, e.db, &domain.Address{}, "is_default", bob.ID))
}

func TestAddressValidation(t *testing.T) {
	e := newTestEnv(t)
	_, auth := e.createUser(t, "alice", "")

	w := e.do(t, http.MethodPost, "/api/addresses", auth, gin.H{"city": "X"})
	requireStatus(t, w, http.StatusBadRequest)
	body := decode[validationBody](t, w)
	for _, f := range []string{"street", "state", "postal_code", "country"} {
		assert.Equal(t, []string{msgRequired}, body.Fields[f], f)
	}

	w = e.do(t, http.MethodPost, "/api/addresses", auth, gin.H{
		"street": "s", "city": "c", "state": "st", "postal_code": "123456789012345678901", "country": "co",
	})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Contains(t, decode[validationBody](t, w).Fields, "postal_code")

	w = e.do(t, http.MethodPost, "/api/addresses", auth, gin.H{
		"street": "s", "city": "c", "state": "st", "postal_code": "1", "country": "co", "is_default": "yes",
	})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Contains(t, decode[validationBody](t, w).Fields, "is_default")

	var count int64
	e.db.Model(&domain.Address{}).Count(&count)
	assert.Zero(t, count, "no partial writes")
}

func TestPhonePrimaryMovesToNewestFlagged(t *testing.T) {
	e := newTestEnv(t)
	user, auth := e.createUser(t, "alice", "")

	w := e.do(t, http.MethodPost, "/api/phone-numbers", auth, gin.H{"number": "555-0100", "is_primary": true})
	requireStatus(t, w, http.StatusCreated)
	first := decode[PhoneNumberResponse](t, w)

	w = e.do(t, http.MethodPost, "/api/phone-numbers", auth, gin.H{"number": "555-0101", "is_primary": true})
	requireStatus(t, w, http.StatusCreated)
	second := decode[PhoneNumberResponse](t, w)
	assert.True(t, second.IsPrimary)

	w = e.do(t, http.MethodGet, fmt.Sprintf("/api/phone-numbers/%d", first.ID), auth, nil)
	assert.False(t, decode[PhoneNumberResponse](t, w).IsPrimary)
	assert.EqualValues(t, 1, countFlagged(t, e.db, &domain.PhoneNumber{}, "is_primary", user.ID))

	w = e.do(t, http.MethodPut, fmt.Sprintf("/api/phone-numbers/%d", first.ID), auth, gin.H{"number": "555-0199", "is_primary": true})
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "555-0199", decode[PhoneNumberResponse](t, w).Number)
	w = e.do(t, http.MethodGet, fmt.Sprintf("/api/phone-numbers/%d", second.ID), auth, nil)
	assert.False(t, decode[PhoneNumberResponse](t, w).IsPrimary)
	assert.EqualValues(t, 1, countFlagged(t, e.db, &domain.PhoneNumber{}, "is_primary", user.ID))

	w = e.do(t, http.MethodPatch, fmt.Sprintf("/api/phone-numbers/%d", second.ID), auth, gin.H{"number": "555-0102"})
	requireStatus(t, w, http.StatusOK)
	assert.False(t, decode[PhoneNumberResponse](t, w).IsPrimary)

	requireStatus(t, e.do(t, http.MethodDelete, fmt.Sprintf("/api/phone-numbers/%d", first.ID), auth, nil), http.StatusNoContent)
	w = e.do(t, http.MethodGet, "/api/phone-numbers", auth, nil)
	assert.Len(t, decode[[]PhoneNumberResponse](t, w), 1)
}

func TestForeignContactsAreNotFound(t *testing.T) {
	e := newTestEnv(t)
	_, aliceAuth := e.createUser(t, "alice", "")
	_, bobAuth := e.createUser(t, "bob", "")

	w := e.do(t, http.MethodPost, "/api/addresses", aliceAuth, address("X", true))
	addr := decode[AddressResponse](t, w)
	w = e.do(t, http.MethodPost, "/api/phone-numbers", aliceAuth, gin.H{"number": "555-0100", "is_primary": true})
	phone := decode[PhoneNumberResponse](t, w)

	absent := e.do(t, http.MethodGet, "/api/addresses/999999", bobAuth, nil)
	requireStatus(t, absent, http.StatusNotFound)

	for _, path := range []string{fmt.Sprintf("/api/addresses/%d", addr.ID), fmt.Sprintf("/api/phone-numbers/%d", phone.ID)} {
		for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodPut, http.MethodDelete} {
			w := e.do(t, method, path, bobAuth, gin.H{"is_default": true, "is_primary": true})
			requireStatus(t, w, http.StatusNotFound)
			assert.JSONEq(t, absent.Body.String(), w.Body.String(), "%s %s", method, path)
		}
	}
	requireStatus(t, e.do(t, http.MethodGet, "/api/addresses/not-a-number", bobAuth, nil), http.StatusNotFound)

	// Alice's records are untouched
	w = e.do(t, http.MethodGet, fmt.Sprintf("/api/addresses/%d", addr.ID), aliceAuth, nil)
	requireStatus(t, w, http.StatusOK)
	assert.True(t, decode[AddressResponse](t, w).IsDefault)
	w = e.do(t, http.MethodGet, "/api/phone-numbers", bobAuth, nil)
	assert.Empty(t, decode[[]PhoneNumberResponse](t, w))
}

func TestConcurrentFlagWritesKeepOneFlaggedRow(t *testing.T) {
	e := newTestEnv(t)
	user, auth := e.createUser(t, "alice", "")

	const writers = 4
	codes := make([]int, writers*2)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			codes[i] = e.do(t, http.MethodPost, "/api/addresses", auth, address(fmt.Sprintf("C%d", i), true)).Code
		}(i)
		go func(i int) {
			defer wg.Done()
			codes[writers+i] = e.do(t, http.MethodPost, "/api/phone-numbers", auth, gin.H{"number": fmt.Sprintf("555-01%02d", i), "is_primary": true}).Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusCreated, code, "writer %d", i)
	}
	assert.EqualValues(t, 1, countFlagged(t, e.db, &domain.Address{}, "is_default", user.ID))
	assert.EqualValues(t, 1, countFlagged(t, e.db, &domain.PhoneNumber{}, "is_primary", user.ID))
}
