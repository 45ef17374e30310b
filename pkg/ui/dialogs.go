package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	"github.com/intothevoid/prodcam/pkg/permission"
)

// ResultFunc receives the answer to a permission prompt.
type ResultFunc func(code int, perms []permission.Permission, grants []permission.Grant)

// PermissionPrompt asks for permissions with a confirm dialog and records
// the answer in a Store before reporting it.
type PermissionPrompt struct {
	win      fyne.Window
	store    *permission.Store
	onResult ResultFunc
}

// NewPermissionPrompt returns a prompt that reports to onResult.
func NewPermissionPrompt(win fyne.Window, store *permission.Store, onResult ResultFunc) *PermissionPrompt {
	return &PermissionPrompt{win: win, store: store, onResult: onResult}
}

// RequestPermissions implements [permission.Requester]. Safe from any goroutine.
func (p *PermissionPrompt) RequestPermissions(perms []permission.Permission, requestCode int) {
	perms = append([]permission.Permission(nil), perms...)
	fyne.Do(func() {
		p.show(perms, requestCode)
	})
}

func (p *PermissionPrompt) show(perms []permission.Permission, requestCode int) {
	names := make([]string, len(perms))
	for i, perm := range perms {
		names[i] = string(perm)
	}
	msg := fmt.Sprintf("Allow this app to use: %s?", strings.Join(names, ", "))
	dialog.ShowConfirm("Permission required", msg, func(ok bool) {
		p.answer(perms, requestCode, ok)
	}, p.win)
}

func (p *PermissionPrompt) answer(perms []permission.Permission, requestCode int, ok bool) {
	g := permission.Denied
	if ok {
		g = permission.Granted
	}
	grants := make([]permission.Grant, len(perms))
	for i, perm := range perms {
		p.store.Set(perm, g)
		grants[i] = g
	}
	p.onResult(requestCode, perms, grants)
}

// Notifier shows notices as information dialogs on win.
type Notifier struct {
	win   fyne.Window
	title string
}

// NewNotifier returns a notifier whose dialogs carry title.
func NewNotifier(win fyne.Window, title string) *Notifier {
	return &Notifier{win: win, title: title}
}

// Notice implements session.Notifier. Call on the UI thread.
func (n *Notifier) Notice(msg string) {
	dialog.ShowInformation(n.title, msg, n.win)
}
