package mcp

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/reclaim/internal/dedupe"
	"github.com/thebtf/reclaim/internal/outliers"
	"github.com/thebtf/reclaim/internal/scanner"
	"github.com/thebtf/reclaim/pkg/clustering"
	"github.com/thebtf/reclaim/pkg/models"
)

func (s *Server) handleInitialize(req Request) Response {
	log.Info().Msg("Handling initialize request")
	return successResponse(req.ID, map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{"listChanged": true},
		},
		"serverInfo": map[string]any{
			"name":    "reclaim",
			"version": s.version,
		},
	})
}

// walkProperties is the schema fragment shared by the traversal tools.
func walkProperties(pathDesc string) map[string]any {
	return map[string]any{
		"path": map[string]any{
			"type":        "string",
			"description": pathDesc,
		},
		"pattern": map[string]any{
			"type":        "string",
			"description": "Pattern to match files",
			"default":     "",
		},
		"pattern_type": map[string]any{
			"type":    "string",
			"enum":    []string{"literal", "glob", "regex"},
			"default": "literal",
		},
		"hidden": map[string]any{
			"type":        "boolean",
			"description": "Include hidden files",
			"default":     false,
		},
		"no_ignore": map[string]any{
			"type":        "boolean",
			"description": "Ignore .gitignore rules",
			"default":     false,
		},
		"max_depth": map[string]any{
			"type":        "integer",
			"description": "Maximum depth to traverse",
		},
	}
}

func (s *Server) handleToolsList(req Request) Response {
	log.Info().Msg("Handling tools/list request")

	dedupeProps := walkProperties("Path to scan for duplicates")
	dedupeProps["similarity"] = map[string]any{
		"type":        "integer",
		"description": "Similarity threshold (0-100) for fuzzy matching",
		"minimum":     0,
		"maximum":     100,
	}

	return successResponse(req.ID, map[string]any{
		"tools": []map[string]any{
			{
				"name":        "dedupe",
				"description": "Find duplicate files in a directory",
				"inputSchema": map[string]any{
					"type":       "object",
					"properties": dedupeProps,
					"required":   []string{"path"},
				},
			},
			{
				"name":        "search",
				"description": "Search for files matching a pattern",
				"inputSchema": map[string]any{
					"type":       "object",
					"properties": walkProperties("Path to search in"),
					"required":   []string{"path"},
				},
			},
			{
				"name":        "count",
				"description": "Count files matching a pattern",
				"inputSchema": map[string]any{
					"type":       "object",
					"properties": walkProperties("Path to count files in"),
					"required":   []string{"path"},
				},
			},
			{
				"name":        "outliers",
				"description": "Detect storage outliers (large files, hidden consumers, patterns)",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"path": map[string]any{
							"type":        "string",
							"description": "Path to analyze for outliers",
						},
						"min_size": map[string]any{
							"type":        "string",
							"description": "Minimum file size to consider (e.g., 100MB, 1GB)",
						},
						"top_n": map[string]any{
							"type":        "integer",
							"description": "Number of top outliers to return",
							"default":     20,
						},
						"std_dev_threshold": map[string]any{
							"type":        "number",
							"description": "Standard deviations from mean to consider as outlier",
							"default":     2.0,
						},
						"check_hidden_consumers": map[string]any{
							"type":        "boolean",
							"description": "Check for hidden space consumers (node_modules, .git, etc.)",
							"default":     true,
						},
						"check_patterns": map[string]any{
							"type":        "boolean",
							"description": "Check for file patterns (backups, logs, etc.)",
							"default":     true,
						},
					},
					"required": []string{"path"},
				},
			},
			{
				"name":        "analyze_file_clusters",
				"description": "Detect clusters of similar large files using DBSCAN",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"path": map[string]any{
							"type":        "string",
							"description": "Directory path to analyze",
						},
						"min_similarity": map[string]any{
							"type":        "integer",
							"minimum":     50,
							"maximum":     100,
							"default":     70,
							"description": "Minimum similarity percentage for clustering",
						},
						"min_cluster_size": map[string]any{
							"type":        "integer",
							"minimum":     2,
							"default":     2,
							"description": "Minimum files to form a cluster",
						},
						"min_file_size": map[string]any{
							"type":        "string",
							"default":     "10MB",
							"description": "Minimum file size to consider",
						},
						"files": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Specific files to analyze (for tool composition)",
						},
					},
					"required": []string{"path"},
				},
			},
		},
	})
}

func (s *Server) handleToolCall(ctx context.Context, req Request) Response {
	var params toolCallParams
	if len(req.Params) == 0 {
		return errorResponse(req.ID, codeInvalidParams, "Invalid params: missing tool call parameters")
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "Invalid params: "+err.Error())
	}

	switch params.Name {
	case "dedupe":
		return s.handleDedupeTool(ctx, req.ID, params.Arguments)
	case "search":
		return s.handleSearchTool(req.ID, params.Arguments)
	case "count":
		return s.handleCountTool(req.ID, params.Arguments)
	case "outliers":
		return s.handleOutliersTool(ctx, req.ID, params.Arguments)
	case "analyze_file_clusters":
		return s.handleAnalyzeClustersTool(ctx, req.ID, params.Arguments)
	default:
		return errorResponse(req.ID, codeInvalidParams, "Unknown tool: "+params.Name)
	}
}

type walkArgs struct {
	Path        string `json:"path"`
	Pattern     string `json:"pattern"`
	PatternType string `json:"pattern_type"`
	Hidden      bool   `json:"hidden"`
	NoIgnore    bool   `json:"no_ignore"`
	MaxDepth    int    `json:"max_depth"`
}

func (a walkArgs) walkOptions() scanner.WalkOptions {
	return scanner.WalkOptions{
		IncludeHidden: a.Hidden,
		RespectIgnore: !a.NoIgnore,
		MaxDepth:      a.MaxDepth,
	}
}

// matchedFiles walks and filters per the shared traversal arguments.
func matchedFiles(a walkArgs) ([]string, error) {
	pattern, err := scanner.NewPattern(a.PatternType, a.Pattern)
	if err != nil {
		return nil, err
	}
	files, err := scanner.Walk(a.Path, a.walkOptions())
	if err != nil {
		return nil, err
	}
	return scanner.Filter(files, pattern), nil
}

type dedupeArgs struct {
	walkArgs
	Similarity *int `json:"similarity"`
}

func (s *Server) handleDedupeTool(ctx context.Context, id json.RawMessage, arguments json.RawMessage) Response {
	var args dedupeArgs
	if err := json.Unmarshal(arguments, &args); err != nil {
		return errorResponse(id, codeInvalidParams, "Invalid arguments for dedupe: "+err.Error())
	}

	files, err := matchedFiles(args.walkArgs)
	if err != nil {
		return errorResponse(id, codeInvalidParams, "Invalid pattern: "+err.Error())
	}

	collectOpts := scanner.DefaultCollectOptions()
	collectOpts.EnableFuzzyHash = args.Similarity != nil
	records := scanner.Collect(ctx, files, collectOpts)

	report := dedupe.FindDuplicates(ctx, records)
	result := map[string]any{
		"total_files":      len(records),
		"duplicate_groups": len(report.Sets),
		"wasted_bytes":     report.TotalWasted,
		"duplicate_sets":   report.Sets,
	}
	duplicateFiles := 0
	for _, set := range report.Sets {
		duplicateFiles += len(set.Paths)
	}
	result["duplicate_files"] = duplicateFiles
	result["message"] = fmt.Sprintf("Found %d duplicate files in %d total files", duplicateFiles, len(records))

	if args.Similarity != nil {
		groups := dedupe.FindSimilar(records, *args.Similarity, nil)
		result["similar_groups"] = groups
	}

	return successResponse(id, result)
}

func (s *Server) handleSearchTool(id json.RawMessage, arguments json.RawMessage) Response {
	var args walkArgs
	if err := json.Unmarshal(arguments, &args); err != nil {
		return errorResponse(id, codeInvalidParams, "Invalid arguments for search: "+err.Error())
	}

	files, err := matchedFiles(args)
	if err != nil {
		return errorResponse(id, codeInternalError, "Search failed: "+err.Error())
	}

	return successResponse(id, map[string]any{
		"files":   files,
		"count":   len(files),
		"message": fmt.Sprintf("Found %d files matching pattern", len(files)),
	})
}

func (s *Server) handleCountTool(id json.RawMessage, arguments json.RawMessage) Response {
	var args walkArgs
	if err := json.Unmarshal(arguments, &args); err != nil {
		return errorResponse(id, codeInvalidParams, "Invalid arguments for count: "+err.Error())
	}

	files, err := matchedFiles(args)
	if err != nil {
		return errorResponse(id, codeInternalError, "Count failed: "+err.Error())
	}

	return successResponse(id, map[string]any{
		"count":   len(files),
		"message": fmt.Sprintf("Found %d files matching pattern", len(files)),
	})
}

type outliersArgs struct {
	Path                 string  `json:"path"`
	MinSize              string  `json:"min_size"`
	TopN                 int     `json:"top_n"`
	StdDevThreshold      float64 `json:"std_dev_threshold"`
	CheckHiddenConsumers *bool   `json:"check_hidden_consumers"`
	CheckPatterns        *bool   `json:"check_patterns"`
}

func (s *Server) handleOutliersTool(ctx context.Context, id json.RawMessage, arguments json.RawMessage) Response {
	args := outliersArgs{TopN: 20, StdDevThreshold: 2.0}
	if err := json.Unmarshal(arguments, &args); err != nil {
		return errorResponse(id, codeInvalidParams, "Invalid arguments for outliers: "+err.Error())
	}

	opts := models.DefaultOutlierOptions()
	opts.TopN = args.TopN
	opts.StdDevThreshold = args.StdDevThreshold
	if args.CheckHiddenConsumers != nil {
		opts.CheckHiddenConsumers = *args.CheckHiddenConsumers
	}
	if args.CheckPatterns != nil {
		opts.CheckPatterns = *args.CheckPatterns
	}
	if args.MinSize != "" {
		size, err := humanize.ParseBytes(args.MinSize)
		if err != nil {
			return errorResponse(id, codeInvalidParams, "Invalid min_size: "+err.Error())
		}
		opts.MinSize = size
	}

	files, err := scanner.Walk(args.Path, scanner.DefaultWalkOptions())
	if err != nil {
		return errorResponse(id, codeInternalError, "Outliers detection failed: "+err.Error())
	}
	records := scanner.Collect(ctx, files, scanner.CollectOptions{})

	report := outliers.BuildReport(records, opts, nil)
	outlierTotal := len(report.LargeFiles) + len(report.HiddenConsumers) + len(report.PatternGroups)

	return successResponse(id, map[string]any{
		"total_files_analyzed": report.TotalFilesAnalyzed,
		"total_size_analyzed":  report.TotalSizeAnalyzed,
		"total_size_gb":        float64(report.TotalSizeAnalyzed) / (1024.0 * 1024.0 * 1024.0),
		"large_files":          report.LargeFiles,
		"hidden_consumers":     report.HiddenConsumers,
		"pattern_groups":       report.PatternGroups,
		"message":              fmt.Sprintf("Found %d outliers across %d files", outlierTotal, report.TotalFilesAnalyzed),
	})
}

type analyzeClustersArgs struct {
	Path           string   `json:"path"`
	MinSimilarity  int      `json:"min_similarity"`
	MinClusterSize int      `json:"min_cluster_size"`
	MinFileSize    string   `json:"min_file_size"`
	Files          []string `json:"files"`
}

func (s *Server) handleAnalyzeClustersTool(ctx context.Context, id json.RawMessage, arguments json.RawMessage) Response {
	args := analyzeClustersArgs{MinSimilarity: 70, MinClusterSize: 2, MinFileSize: "10MB"}
	if err := json.Unmarshal(arguments, &args); err != nil {
		return errorResponse(id, codeInvalidParams, "Invalid arguments for analyze_file_clusters: "+err.Error())
	}

	minSize, err := humanize.ParseBytes(args.MinFileSize)
	if err != nil {
		minSize = 10 * 1024 * 1024
	}

	// Tool composition: an explicit file list overrides the directory scan.
	paths := args.Files
	if len(paths) == 0 {
		paths, err = scanner.Walk(args.Path, scanner.DefaultWalkOptions())
		if err != nil {
			return errorResponse(id, codeInternalError, "Error scanning directory: "+err.Error())
		}
	}

	records := scanner.Collect(ctx, paths, scanner.CollectOptions{
		EnableFuzzyHash: true,
		HashMinSize:     minSize,
	})
	candidates := make([]models.FileRecord, 0, len(records))
	for _, r := range records {
		if r.SizeBytes >= minSize {
			candidates = append(candidates, r)
		}
	}

	if len(candidates) < args.MinClusterSize {
		insufficientErr := &clustering.InsufficientFilesError{Have: len(candidates), Need: args.MinClusterSize}
		return errorResponse(id, codeInternalError, "Error detecting clusters: "+insufficientErr.Error())
	}

	clusters, err := clustering.DetectClustersBatched(candidates, args.MinSimilarity, args.MinClusterSize, s.cfg.BatchSize, nil)
	if err != nil {
		return errorResponse(id, codeInternalError, "Error detecting clusters: "+err.Error())
	}

	totalFiles := 0
	var totalSize uint64
	var allPaths []string
	for _, c := range clusters {
		totalFiles += len(c.Files)
		totalSize += c.TotalSize
		for _, f := range c.Files {
			allPaths = append(allPaths, f.Path)
		}
	}

	return successResponse(id, map[string]any{
		"clusters": clusters,
		"summary": map[string]any{
			"total_clusters": len(clusters),
			"total_files":    totalFiles,
			"total_size":     totalSize,
			"files":          allPaths,
		},
		"message": fmt.Sprintf("Found %d clusters containing %d similar files", len(clusters), totalFiles),
	})
}
