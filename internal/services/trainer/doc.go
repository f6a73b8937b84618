// Package trainer hosts the card-trainer backend: the card catalog, user
// accounts, training history, the elixir simulator, and the Clash Royale
// proxy.
package trainer
