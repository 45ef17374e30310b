// Package permission checks and requests the capabilities the app needs
// before it may touch a camera.
package permission

// Permission names one capability.
type Permission string

// Camera grants access to capture devices.
const Camera Permission = "camera"

// RequestCode identifies prompts raised by Helper.RequestPermissions.
const RequestCode = 1000

// Required is the fixed set of capabilities the app needs.
var Required = []Permission{Camera}

// Grant is the outcome of a check or a prompt for one permission.
type Grant int

const (
	Denied Grant = iota
	Granted
)

func (g Grant) String() string {
	if g == Granted {
		return "granted"
	}
	return "denied"
}

// Checker reports the current grant state of a permission.
type Checker interface {
	CheckSelfPermission(p Permission) Grant
}

// Requester raises an asynchronous prompt for perms. The answer is delivered
// later, through whatever result callback the host wires up, tagged with
// requestCode.
type Requester interface {
	RequestPermissions(perms []Permission, requestCode int)
}

// Helper checks and requests Required. It holds no state.
type Helper struct{}

// CheckAllGranted reports whether every required permission is granted.
func (Helper) CheckAllGranted(c Checker) bool {
	for _, p := range Required {
		if c.CheckSelfPermission(p) != Granted {
			return false
		}
	}
	return true
}

// RequestPermissions asks r to prompt for Required under RequestCode.
func (Helper) RequestPermissions(r Requester) {
	perms := make([]Permission, len(Required))
	copy(perms, Required)
	r.RequestPermissions(perms, RequestCode)
}

// AnyDenied reports whether any result is Denied.
func AnyDenied(results []Grant) bool {
	for _, g := range results {
		if g == Denied {
			return true
		}
	}
	return false
}
