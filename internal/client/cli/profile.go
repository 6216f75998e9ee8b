package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dmitrijs2005/matchmate/internal/client/profile"
	"github.com/dmitrijs2005/matchmate/internal/common"
)

var getMultiline = GetMultiline

// ShowProfile prints the working profile. Fields with unsaved edits are
// marked with '*'.
func (a *App) ShowProfile(ctx context.Context) error {
	if !a.profile.Loaded() {
		if err := a.profile.Load(ctx); err != nil {
			return err
		}
	}

	working := a.profile.Working()
	changed := map[string]bool{}
	for _, c := range a.profile.Diff() {
		changed[c.Field] = true
	}

	fmt.Fprintf(a.out, "Profile (%s)\n", a.profile.Mode())
	for _, f := range profile.SyncableFields {
		mark := " "
		if changed[f] {
			mark = "*"
		}
		fmt.Fprintf(a.out, "%s %-17s %s\n", mark, f, orDash(working.Trimmed(f)))
	}
	if missing := profile.MissingMandatory(working); len(missing) > 0 {
		fmt.Fprintln(a.out, "Missing:", strings.Join(missing, ", "))
	}
	if msg := a.profile.Err(); msg != "" {
		fmt.Fprintln(a.out, "Last error:", msg)
	}
	return nil
}

// SetField edits one working field. "set about" without a value reads a
// multi-line text.
func (a *App) SetField(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("set <field> [value]")
	}
	field := args[0]
	if !slices.Contains(profile.SyncableFields, field) {
		return fmt.Errorf("unknown field %q, one of: %s", field, strings.Join(profile.SyncableFields, ", "))
	}

	value := strings.Join(args[1:], " ")
	if value == "" && field == profile.FieldAbout {
		text, err := getMultiline(a.reader, "Tell others about yourself", a.out)
		if err != nil {
			return err
		}
		value = text
	}

	a.profile.SetField(ctx, field, value)
	return nil
}

// SaveProfile sends the working profile. A second save while one is in
// flight is refused.
func (a *App) SaveProfile(ctx context.Context) error {
	mode := a.profile.Mode()
	err := a.saveGuard.Run(func() error { return a.profile.Save(ctx) })
	if err != nil {
		var ve *common.ValidationError
		if errors.As(err, &ve) && len(ve.Fields) > 0 {
			fmt.Fprintln(a.out, "Please fill in:", strings.Join(ve.Fields, ", "))
		}
		return err
	}

	if mode == profile.ModeCreate {
		fmt.Fprintln(a.out, "Profile created.")
	} else {
		fmt.Fprintln(a.out, "Profile saved.")
	}
	return nil
}

// DiscardProfile drops unsaved edits.
func (a *App) DiscardProfile(ctx context.Context) error {
	a.profile.Discard(ctx)
	fmt.Fprintln(a.out, "Unsaved changes discarded.")
	return nil
}

// DiffProfile prints each unsaved edit as an inline diff.
func (a *App) DiffProfile(ctx context.Context) error {
	changes := a.profile.Diff()
	if len(changes) == 0 {
		fmt.Fprintln(a.out, "No unsaved changes.")
		return nil
	}
	for _, c := range changes {
		fmt.Fprintf(a.out, "%s: %s\n", c.Field, renderChange(c.From, c.To))
	}
	return nil
}

// renderChange marks deleted text as [-x-] and inserted text as {+x+}.
func renderChange(from, to string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(from, to, false))

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+" + d.Text + "+}")
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}
