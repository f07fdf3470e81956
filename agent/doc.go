// Package agent contains the orchestration core: the Executor, which turns
// one (query, optional context) pair into one AgentResponse through a
// retrieval -> prompt assembly -> model/tool-loop pipeline, and the Manager,
// which owns the agent roster, the executor map, cross-agent delegation
// wiring and master prompt regeneration.
//
// The master delegation protocol is layered on top of both: the master
// agent's tools are callbacks into Manager.ExecuteAgent, so a master run
// can recursively dispatch work to any other enabled agent.
package agent
