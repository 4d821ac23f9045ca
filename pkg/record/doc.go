// Package record is an active-record engine: each Entity is one row of its
// model's table, tracks whether it is new or dirty, resolves relations to
// other entities lazily with a per-instance cache and persists itself with
// exactly one INSERT, UPDATE or DELETE per call.
//
// Type-level metadata lives on a Model, created by registering a
// schema.Descriptor with a Registry:
//
//	reg := record.NewRegistry(db, logger)
//	posts, err := reg.Register(postDescriptor, record.WithHooks(record.Hooks{
//		BeforeSave: func(e *record.Entity) bool { return e.Has("title") },
//	}))
//
//	p := posts.New()
//	p.Set("title", "Hello")
//	res, err := p.Save(ctx) // INSERT, p.IsNew() == false afterwards
//
//	author, err := p.Get(ctx, "author") // resolved once, then cached
//
// Unknown attribute or relation names are never errors: reads yield an
// absent Value and writes are dropped.
package record
