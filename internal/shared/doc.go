// Package shared holds helpers used across tabclean packages that belong to
// no single layer.
//
// The testutil subpackage provides a capturing slog handler and small
// CSV fixtures modelled on the datasets the pipeline is exercised with
// (Titanic passengers, online retail invoices, Netflix titles).
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    path := testutil.WriteFile(t, "titanic.csv", testutil.TitanicCSV)
//	    ...
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "stage_completed")
//	}
package shared
