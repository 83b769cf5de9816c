// Package repository provides a generic record accessor built on Bun.
//
// A Repository[T] wraps a bun.IDB with lookups, filtered and paginated lists,
// counts, existence checks, inserts, updates and deletes for a single model.
// Filters are expressed as types.Where clauses and applied in order:
//
//	users := repository.NewRepository[User](db)
//	adults, err := users.List(ctx, &types.ListOptions{
//		Where:   types.Where{types.And(types.Cond("age", ">=", 18))},
//		OrderBy: []types.Order{types.Asc("name")},
//		Limit:   10,
//	})
//
// Entity repositories embed the interface and add their own queries through
// NewSelect and friends.
package repository
