// Package mock provides test doubles for the ai interfaces so business
// logic can be exercised without a model or network access.
package mock
