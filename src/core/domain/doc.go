// Package domain contains the core domain model for the contest.
//
// This package defines:
//   - Entities: Game, Player, User and Group
//   - Value objects: Pick, Role, Phase
//   - Results: GameResult handed to persistence, PlayerStats read back
//   - Notices: structured messages the engine emits for delivery
//   - Domain errors: the rejections every entry point can return
//
// Rules for this package:
//   - No infrastructure concerns (database, HTTP, websocket)
//   - Entities keep their own invariants (join order, monotonic elimination)
//
// A game in its simplest form:
//
//	g := domain.NewGame(uuid.New(), domain.Group{ID: -100123, Title: "Friends"}, adminID, time.Now())
//	g.AddPlayer(domain.User{ID: 1, Name: "Ana"}, time.Now())
//	g.AddPlayer(domain.User{ID: 2, Name: "Bo"}, time.Now())
package domain
