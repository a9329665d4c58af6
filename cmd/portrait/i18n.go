// Package main provides localization for the portrait CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Turn a folder of photos into uniform half-body portraits.": "写真フォルダから統一された上半身ポートレートを作成します。",
		"portrait version %s": "portrait バージョン %s",

		// Arguments
		"Directory containing the source photos.": "元の写真が入ったディレクトリ",
		"Directory where portraits are written.":  "ポートレートの出力先ディレクトリ",

		// Configuration flags
		"YAML configuration file.": "YAML設定ファイル",
		"Number of images processed in parallel (default: number of CPUs).": "並列に処理する画像数（デフォルト: CPU数）",

		// Segmentation flags
		"Background remover to use (onnx, http).":          "使用する背景除去方式（onnx, http）",
		"Path to the U2-Net ONNX model.":                   "U2-Net ONNXモデルのパス",
		"Path to the onnxruntime shared library.":          "onnxruntime共有ライブラリのパス",
		"URL of a rembg-compatible removal endpoint.":      "rembg互換の背景除去エンドポイントURL",
		"Timeout for one request to the removal endpoint.": "背景除去エンドポイントへの1リクエストのタイムアウト",

		// Debug and report flags
		"Save intermediate images for each photo.":    "写真ごとに中間画像を保存",
		"Directory for debug output.":                 "デバッグ出力先ディレクトリ",
		"Write a Markdown batch report to this file.": "Markdown形式の処理レポートを書き出すファイル",
		"Exit with an error when any image fails.":    "1枚でも失敗した場合はエラーで終了",

		// Logging flags
		"Log level (debug, info, warn, error).": "ログレベル（debug, info, warn, error）",
		"Suppress all log output.":              "すべてのログ出力を抑制",
		"Show version information.":             "バージョン情報を表示",
		"Show context-sensitive help.":          "ヘルプを表示",

		// Runtime messages
		"Report saved to %s": "レポートを %s に保存しました",

		// Summary content
		"Portrait Batch Summary":    "ポートレート処理サマリー",
		"Item":                      "項目",
		"Value":                     "値",
		"Generated":                 "作成日時",
		"Input":                     "入力",
		"Output":                    "出力",
		"Canvas":                    "キャンバス",
		"Segmenter":                 "背景除去",
		"Images":                    "画像",
		"Succeeded":                 "成功",
		"Failed":                    "失敗",
		"Duration":                  "所要時間",
		"No images were processed.": "処理された画像はありません。",
		"File":                      "ファイル",
		"Status":                    "状態",
		"Scale":                     "倍率",
		"Placement":                 "配置",
		"Error":                     "エラー",
		"OK":                        "成功",
		"Generated by portrait %s":  "portrait %s により生成",
	})

	// Register Chinese translations for CLI messages.
	l10n.Register("zh", l10n.LexiconMap{
		"Turn a folder of photos into uniform half-body portraits.": "将照片文件夹批量生成统一规格的半身像。",
		"portrait version %s": "portrait 版本 %s",

		"Directory containing the source photos.": "原始照片所在目录",
		"Directory where portraits are written.":  "半身像输出目录",

		"YAML configuration file.": "YAML 配置文件",
		"Number of images processed in parallel (default: number of CPUs).": "并行处理的图片数量（默认: CPU 核数）",

		"Background remover to use (onnx, http).":          "使用的抠图方式（onnx, http）",
		"Path to the U2-Net ONNX model.":                   "U2-Net ONNX 模型路径",
		"Path to the onnxruntime shared library.":          "onnxruntime 动态库路径",
		"URL of a rembg-compatible removal endpoint.":      "兼容 rembg 的抠图接口地址",
		"Timeout for one request to the removal endpoint.": "单次抠图请求的超时时间",

		"Save intermediate images for each photo.":    "保存每张照片的中间结果",
		"Directory for debug output.":                 "调试输出目录",
		"Write a Markdown batch report to this file.": "将 Markdown 处理报告写入此文件",
		"Exit with an error when any image fails.":    "任意图片失败时以错误退出",

		"Log level (debug, info, warn, error).": "日志级别（debug, info, warn, error）",
		"Suppress all log output.":              "不输出任何日志",
		"Show version information.":             "显示版本信息",
		"Show context-sensitive help.":          "显示帮助",

		"Report saved to %s": "报告已保存到 %s",

		"Portrait Batch Summary":    "半身像处理汇总",
		"Item":                      "项目",
		"Value":                     "值",
		"Generated":                 "生成时间",
		"Input":                     "输入",
		"Output":                    "输出",
		"Canvas":                    "画布",
		"Segmenter":                 "抠图方式",
		"Images":                    "图片",
		"Succeeded":                 "成功",
		"Failed":                    "失败",
		"Duration":                  "耗时",
		"No images were processed.": "没有处理任何图片。",
		"File":                      "文件",
		"Status":                    "状态",
		"Scale":                     "缩放",
		"Placement":                 "位置",
		"Error":                     "错误",
		"OK":                        "成功",
		"Generated by portrait %s":  "由 portrait %s 生成",
	})
}
