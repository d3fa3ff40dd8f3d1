// Package domain holds the policy import entities (agents, users, accounts,
// categories, carriers, policies) and scheduled messages, together with
// their constructors and validation rules.
package domain
