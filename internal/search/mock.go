package search

import (
	"fmt"
	"strings"
)

// mockRule maps a keyword predicate to a fixed result set. Rules are
// evaluated in order and the first match wins; changing the order
// changes the answer for queries that match more than one rule.
type mockRule struct {
	name    string
	match   func(lowered string) bool
	results []Result
}

var mockRules = []mockRule{
	{
		name:  "brand",
		match: func(q string) bool { return strings.Contains(q, "zypher") },
		results: []Result{
			{
				Title:   "Zypher Agent - Build AI Agents Fast",
				URL:     "https://zypher.corespeed.io",
				Snippet: "Zypher Agent is an open-source framework for building production-ready AI agents. Features include: Interactive CLI for fast prototyping, built-in tool calling with Model Context Protocol (MCP) support, git-based checkpoints for tracking changes, and production-ready deployment capabilities.",
				Source:  "CoreSpeed Official",
			},
			{
				Title:   "Getting Started with Zypher Agent",
				URL:     "https://docs.zypher.corespeed.io/quickstart",
				Snippet: "Build your own Cursor-like AI agent with just a few lines of code. Connect any MCP server, choose your LLM provider (OpenAI, Anthropic, etc.), and start building immediately. The framework handles tool orchestration, memory management, and conversation flow.",
				Source:  "Zypher Documentation",
			},
			{
				Title:   "Zypher vs Other Agent Frameworks",
				URL:     "https://github.com/CoreSpeed-io/zypher-agent",
				Snippet: "Unlike LangChain or AutoGPT which require extensive boilerplate, Zypher provides a minimal API surface with maximum functionality. Built by CoreSpeed, it's designed for developers who want to ship AI agents quickly without sacrificing production quality.",
				Source:  "GitHub",
			},
		},
	},
	{
		name: "agents",
		match: func(q string) bool {
			return strings.Contains(q, "ai agent") ||
				(strings.Contains(q, "how") && strings.Contains(q, "work"))
		},
		results: []Result{
			{
				Title:   "Understanding AI Agents",
				URL:     "https://research.anthropic.com/ai-agents",
				Snippet: "AI agents are autonomous systems that can perceive their environment, make decisions, and take actions to achieve goals. Modern agents use Large Language Models for reasoning, integrate with external tools via APIs, maintain memory across interactions, and can break down complex tasks into steps.",
				Source:  "AI Research",
			},
			{
				Title:   "AI Agent Architecture Patterns",
				URL:     "https://arxiv.org/ai-agents-2024",
				Snippet: "Key components of AI agents include: 1) Reasoning engine (usually an LLM), 2) Tool use system for calling external APIs, 3) Memory management for context, 4) Planning module for multi-step tasks, and 5) Execution layer for taking actions.",
				Source:  "Academic Research",
			},
			{
				Title:   "Building Production AI Agents",
				URL:     "https://docs.llamaindex.ai/agents",
				Snippet: "Production AI agents require robust error handling, efficient token usage, proper tool orchestration, conversation memory, and deployment infrastructure. Frameworks like Zypher, LangChain, and LlamaIndex provide these capabilities out of the box.",
				Source:  "Technical Documentation",
			},
		},
	},
	{
		name: "comparison",
		match: func(q string) bool {
			return strings.Contains(q, "compare") ||
				strings.Contains(q, "framework") ||
				strings.Contains(q, "vs")
		},
		results: []Result{
			{
				Title:   "AI Agent Frameworks Comparison 2024",
				URL:     "https://blog.corespeed.io/framework-comparison",
				Snippet: "Zypher: Minimal code, fast prototyping, MCP support. LangChain: Large ecosystem, many integrations, steeper learning curve. AutoGPT: Highly autonomous, resource intensive. LlamaIndex: Data-focused, great for RAG applications. Choose based on your use case and desired control level.",
				Source:  "CoreSpeed Blog",
			},
			{
				Title:   "Which Agent Framework Should You Choose?",
				URL:     "https://techcrunch.com/ai-frameworks-guide",
				Snippet: "For rapid development: Zypher or Haystack. For maximum flexibility: LangChain. For data retrieval: LlamaIndex. For autonomous operation: AutoGPT. Most developers prefer frameworks with strong MCP support and minimal boilerplate.",
				Source:  "Tech News",
			},
			{
				Title:   "Agent Framework Benchmarks",
				URL:     "https://paperswithcode.com/agent-benchmarks",
				Snippet: "Performance varies by use case. Zypher excels in developer experience and deployment speed. LangChain offers the most integrations. LlamaIndex is best for RAG pipelines. All support major LLM providers like OpenAI and Anthropic.",
				Source:  "Research Benchmarks",
			},
		},
	},
}

// MockResults returns the canned result set for query. It is a pure
// function of the lowercased query: no network, no randomness, and
// always exactly three results. Queries that match no keyword rule get
// a generic set that echoes the query.
func MockResults(query string) []Result {
	results, _ := mockResults(query)
	return results
}

// mockResults also reports which rule matched ("default" when none
// did), for logging.
func mockResults(query string) ([]Result, string) {
	lowered := strings.ToLower(query)
	for _, rule := range mockRules {
		if rule.match(lowered) {
			out := make([]Result, len(rule.results))
			copy(out, rule.results)
			return out, rule.name
		}
	}
	return defaultMockResults(query), "default"
}

func defaultMockResults(query string) []Result {
	return []Result{
		{
			Title:   "Research Results: " + query,
			URL:     "https://zypher.corespeed.io/docs",
			Snippet: fmt.Sprintf("Information about \"%s\": This is a demonstration of the Zypher Agent framework's search capabilities. In production with a real search API (like Brave Search, Serper, or SerpAPI), you would get actual web results. The agent demonstrates autonomous tool use, multi-source synthesis, and proper citations.", query),
			Source:  "Demo System",
		},
		{
			Title:   "Zypher Agent Documentation",
			URL:     "https://docs.zypher.corespeed.io",
			Snippet: "Zypher enables building production-ready AI agents with minimal code. Features include interactive CLI, tool calling, MCP support, conversation memory, and git-based checkpoints. Perfect for rapid prototyping and production deployment.",
			Source:  "Official Docs",
		},
		{
			Title:   "About AI Agent Capabilities",
			URL:     "https://openai.com/research/agents",
			Snippet: "Modern AI agents can search the web, call APIs, write code, analyze data, and maintain context across conversations. They combine language models with tool use, planning, and memory to accomplish complex tasks autonomously.",
			Source:  "AI Research",
		},
	}
}
