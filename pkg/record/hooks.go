package record

// Hooks are the per-model customization points. A nil hook means "always
// proceed".
type Hooks struct {
	// AfterLoad runs once after every construction or hydration.
	AfterLoad func(e *Entity)
	// BeforeSave returning false turns Save into a no-op.
	BeforeSave func(e *Entity) bool
	// BeforeDelete returning false turns Delete into a no-op.
	BeforeDelete func(e *Entity) bool
}

func (h Hooks) afterLoad(e *Entity) {
	if h.AfterLoad != nil {
		h.AfterLoad(e)
	}
}

func (h Hooks) beforeSave(e *Entity) bool {
	return h.BeforeSave == nil || h.BeforeSave(e)
}

func (h Hooks) beforeDelete(e *Entity) bool {
	return h.BeforeDelete == nil || h.BeforeDelete(e)
}
