// Package config 提供 browseruse 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → .env 文件 → 环境变量 的顺序叠加，
// 并在构造远程客户端之前统一校验。
package config
