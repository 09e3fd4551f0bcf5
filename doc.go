// Package ytanalyzer retrieves every video of a YouTube channel through the
// YouTube Data API v3 within a bounded number of calls, and explains why a
// retrieval fell short of the channel's declared video count.
//
// Overview
//
// The uploads playlist of a channel only yields its most recent videos, so a
// plain listing comes up short on large channels. ytanalyzer combines the
// listing with date-windowed and differently ordered searches, deduplicates
// the results and fetches details in batches of 50. Three strategies trade
// API calls for coverage:
//
//   - Fast: the uploads playlist only
//   - Smart: the playlist plus searches sized to the channel
//   - Complete: the playlist plus exhaustive searches by year, ordering and month
//
// Quick Start
//
//	ctx := context.Background()
//	res, err := ytanalyzer.Analyze(ctx, "https://www.youtube.com/@channel", ytanalyzer.Smart, apiKey)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("%d of %d videos (%.1f%%)\n", res.Retrieved, res.Declared, res.Completeness)
//	if res.Report != nil {
//		for _, c := range res.Report.Causes {
//			fmt.Println(c.Message)
//		}
//	}
//
// Filter the result:
//
//	matches := ytanalyzer.Filter(res.Videos, ytanalyzer.FilterSpec{
//		Keywords: `"live show" -rerun`,
//		MinViews: "1,000",
//	})
//
// Quota
//
// Every key has a daily quota. When a call is rejected for quota the next
// key becomes active; when every key is exhausted the run ends early with
// Result.QuotaExhausted set and whatever was retrieved so far.
//
// Configuration
//
// The ytanalyzer command loads settings from multiple sources:
//
//  1. Environment variables (highest priority)
//  2. Config file (ytanalyzer.json, .yaml or .yml in the working directory or ~/.config/ytanalyzer/)
//  3. Default values (lowest priority)
//
// Environment variables:
//
//   - YTANALYZER_CREDENTIALS: Path of the stored key file
//   - YTANALYZER_API_KEYS: Comma-separated extra keys
//   - YTANALYZER_CALL_INTERVAL: Minimum gap between API calls
//   - YTANALYZER_BULK_INTERVAL: Gap used during search sweeps
//   - YTANALYZER_ROTATION_PAUSE: Pause after switching keys
//   - YTANALYZER_REQUEST_TIMEOUT: Per-request timeout
//   - YTANALYZER_LOG_LEVEL: debug, info, warn or error
//   - YTANALYZER_SESSION_DIR: Where sessions are saved
//
// Error Handling
//
// Checking for sentinel errors:
//
//	if errors.Is(err, ytanalyzer.ErrNoCredentials) {
//		fmt.Println("Add an API key first")
//	}
//
// A run that fails part way still returns its partial Result alongside the
// error.
package ytanalyzer
