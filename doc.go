// Package storm is a type-safe, composable SQL toolkit for Go.
//
// storm turns a fluent description of a query (select, insert, update,
// delete, joins, predicates, subqueries, locking, pagination) together with
// a statically-described entity graph (primary keys, foreign keys, inline
// records, generation strategies) into dialect-correct, parameterized SQL.
//
// The toolkit is split into small packages:
//
//   - schema: static entity and projection descriptors, built fluently
//   - model: the entity graph model and metamodel path resolver
//   - dialect: per-database SQL strategy objects
//   - query: the predicate tree, query builders and compilation core
//   - exec: the execution boundary over database/sql
//   - gen: compile-time metamodel code generation
//
// The root package holds the shared error taxonomy and the statement
// cache contract. All invariant violations are detected synchronously
// during accumulation or at Build time and surface as typed errors; the
// compiler never emits syntactically invalid SQL silently.
package storm
