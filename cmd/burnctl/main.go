/*
main.go - burnctl entry point

PURPOSE:
  Local administration CLI for the daily energy-expenditure ledger. Reads or
  materializes day rows, resets them to their system baseline, applies manual
  overrides, sets burn reductions, and replays vendor syncs against a local
  SQLite database.

CONFIGURATION:
  Flags override the environment. See config.Load for the BURNLEDGER_*
  variables; a .env file in the working directory is honored.

EXAMPLES:
  # Materialize (or fetch) today's row for a user
  burnctl get --user u-123

  # Reset 2024-01-10 back to its system baseline
  burnctl reset --user u-123 --date 2024-01-10

  # Manually override the active figure for today
  burnctl override --user u-123 --active 900

  # Replay a wearable sync
  burnctl sync --user u-123 --burn 1050 --external-id fitsync-88f1

SEE ALSO:
  - ledger/service.go: The operations behind each subcommand
  - store/sqlite/sqlite.go: Database implementation
*/
package main

func main() {
	Execute()
}
