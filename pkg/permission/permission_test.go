package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapChecker map[Permission]Grant

func (m mapChecker) CheckSelfPermission(p Permission) Grant { return m[p] }

type recordingRequester struct {
	perms []Permission
	code  int
	calls int
}

func (r *recordingRequester) RequestPermissions(perms []Permission, code int) {
	r.perms = perms
	r.code = code
	r.calls++
}

func TestCheckAllGranted(t *testing.T) {
	tests := []struct {
		name   string
		grants mapChecker
		want   bool
	}{
		{"camera granted", mapChecker{Camera: Granted}, true},
		{"camera denied", mapChecker{Camera: Denied}, false},
		{"nothing recorded", mapChecker{}, false},
		{"unrelated grant only", mapChecker{"microphone": Granted}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Helper{}.CheckAllGranted(tt.grants))
		})
	}
}

func TestRequestPermissions(t *testing.T) {
	req := &recordingRequester{}
	Helper{}.RequestPermissions(req)

	assert.Equal(t, 1, req.calls)
	assert.Equal(t, 1000, req.code)
	assert.Equal(t, []Permission{Camera}, req.perms)

	// callers cannot mutate the fixed set through the request
	req.perms[0] = "other"
	assert.Equal(t, Camera, Required[0])
}

func TestAnyDenied(t *testing.T) {
	assert.False(t, AnyDenied(nil))
	assert.False(t, AnyDenied([]Grant{Granted}))
	assert.True(t, AnyDenied([]Grant{Denied}))
	assert.True(t, AnyDenied([]Grant{Granted, Denied}))
}

func TestStore(t *testing.T) {
	probeOK := true
	s := NewStore(func(Permission) bool { return probeOK })

	require.Equal(t, Denied, s.CheckSelfPermission(Camera), "no consent yet")

	s.Set(Camera, Granted)
	assert.Equal(t, Granted, s.CheckSelfPermission(Camera))
	assert.True(t, Helper{}.CheckAllGranted(s))

	probeOK = false
	assert.Equal(t, Denied, s.CheckSelfPermission(Camera), "probe vetoes consent")

	probeOK = true
	s.Set(Camera, Denied)
	assert.Equal(t, Denied, s.CheckSelfPermission(Camera))
}

func TestStore_NilProbe(t *testing.T) {
	s := NewStore(nil)
	s.Set(Camera, Granted)
	assert.Equal(t, Granted, s.CheckSelfPermission(Camera))
}
