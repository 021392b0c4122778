package logging

// 结构化日志的组件名。
const (
	ComponentStartup = "startup"
	ComponentCLI     = "cli"
	ComponentConfig  = "config"
	ComponentRender  = "render"
	ComponentServer  = "server"
)
