/*
Package measurement samples the resource consumption and latency of a running computational unit
and reduces each sampling session to summary statistics.

There are four independent entry points that share one shape: sample, accumulate, terminate,
summarize.

  - SampleCPU and SampleMemory poll a process through an Inspector at a fixed interval until the
    process can no longer be read, then return a CPUStatistics or MemoryStatistics record.
  - MeanLatency, TailLatency and ProfileLatency invoke a unit under test a fixed number of times
    with generated inputs and summarize the per-trial wall time in milliseconds.
  - ArtifactSize sums the sizes of the regular files reachable from a path, skipping symbolic
    links.

# Termination

Every poll yields a tagged Reading: Sampled, SubjectGone or QueryFailed. SubjectGone ends the
session. QueryFailed ends it too under the default StopOnQueryError policy; AbortOnQueryError
surfaces it as a *QueryError instead. A session that ends before its first Sampled reading fails
with ErrNoSamplesCollected rather than producing a record.

Sampling blocks the calling goroutine. The wait between polls and the gap between latency trials
observe the supplied context, so a caller can abandon a session that never ends. Monitoring two
processes at once means running two sessions on two goroutines; sessions never share state.

Inspectors are registered by name (see RegisterInspector). The implementations backed by procfs,
gopsutil and the ps tool live in the inspect subpackage and register themselves on import.
*/
package measurement
