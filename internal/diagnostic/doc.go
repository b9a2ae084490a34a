// Package diagnostic collects per-type failures and notices across a whole
// generation run.
//
// The pipeline never halts on the first failure: every pass appends to a
// Diagnostics value and the run outcome is decided only after all types have
// been processed. Filtering-induced omissions are recorded as infos so they
// stay distinguishable from errors.
package diagnostic
