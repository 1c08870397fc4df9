package interaction

// ToggleCommand is one optimistic toggle of a target. Apply changes the store
// right away, then exactly one of Reconcile or Rollback settles the change
// once the server answered.
type ToggleCommand struct {
	store *Store
	seed  Target
	edit  *Edit
}

// NewToggleCommand returns a command toggling the target. The seed is only
// used if the store does not know the target yet.
func NewToggleCommand(store *Store, seed Target) *ToggleCommand {
	return &ToggleCommand{
		store: store,
		seed:  seed,
	}
}

// Apply writes the optimistic state to the store and returns it. The state is
// derived from the store's current value, which may itself be the optimistic
// value of an earlier command.
func (c *ToggleCommand) Apply() Target {
	edit, t := c.store.apply(c.seed)
	c.edit = &edit
	return t
}

// Edit returns the snapshot taken by Apply, nil before Apply.
func (c *ToggleCommand) Edit() *Edit {
	return c.edit
}

// Reconcile writes the server state to the store. It reports false, and
// leaves the store alone, when a newer edit superseded this one.
func (c *ToggleCommand) Reconcile(res Result) (Target, bool) {
	if c.edit == nil {
		return Target{}, false
	}
	return c.store.reconcile(*c.edit, res)
}

// Rollback restores the state from before Apply. It reports false when a
// newer edit superseded this one, in which case that edit owns the state.
func (c *ToggleCommand) Rollback() (Target, bool) {
	if c.edit == nil {
		return Target{}, false
	}
	return c.store.rollback(*c.edit)
}
