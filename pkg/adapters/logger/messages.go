package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Batch (info)
		"Found %d images, processing...":           "%d 枚の画像が見つかりました。処理を開始します...",
		"[%d/%d] %s -> %s":                         "[%d/%d] %s -> %s",
		"Batch completed: %d succeeded, %d failed": "処理完了: 成功 %d 件, 失敗 %d 件",
		"Interrupted, shutting down...":            "中断されました。シャットダウン中...",

		// Batch (warn/error)
		"No supported images found in %s": "%s に対応する画像が見つかりません",
		"[%d/%d] %s failed: %s":           "[%d/%d] %s の処理に失敗しました: %s",
		"Failed to save debug output: %s": "デバッグ出力の保存に失敗しました: %s",

		// Stages (debug)
		"Segmented %s in %d ms": "%s の背景除去が %d ms で完了しました",
		"Subject bounds for %s: (%d,%d)-(%d,%d), cropped to %dx%d": "%s の被写体範囲: (%d,%d)-(%d,%d), %dx%d に切り抜き",
		"Generating %dx%d gradient":                                "%dx%d のグラデーションを生成中",
		"Placing %s: scale %.4f, %dx%d at (%d,%d)":                 "%s を配置: 倍率 %.4f, %dx%d を (%d,%d) に",

		// Segmenters
		"Loaded ONNX model %s (input %s, output %s)": "ONNXモデル %s を読み込みました (入力 %s, 出力 %s)",
		"Using segmentation server %s":               "背景除去サーバー %s を使用します",
	})

	l10n.Register("zh", l10n.LexiconMap{
		"Found %d images, processing...":           "找到 %d 张图片，开始处理...",
		"[%d/%d] %s -> %s":                         "[%d/%d] %s -> %s",
		"Batch completed: %d succeeded, %d failed": "处理完成: 成功 %d 张，失败 %d 张",
		"Interrupted, shutting down...":            "已中断，正在退出...",

		"No supported images found in %s": "%s 中没有找到支持的图片",
		"[%d/%d] %s failed: %s":           "[%d/%d] %s 处理失败: %s",
		"Failed to save debug output: %s": "保存调试输出失败: %s",

		"Segmented %s in %d ms": "%s 抠图完成，用时 %d ms",
		"Subject bounds for %s: (%d,%d)-(%d,%d), cropped to %dx%d": "%s 的主体范围: (%d,%d)-(%d,%d)，裁剪为 %dx%d",
		"Generating %dx%d gradient":                                "正在生成 %dx%d 渐变背景",
		"Placing %s: scale %.4f, %dx%d at (%d,%d)":                 "放置 %s: 缩放 %.4f，%dx%d 位于 (%d,%d)",

		"Loaded ONNX model %s (input %s, output %s)": "已加载 ONNX 模型 %s (输入 %s，输出 %s)",
		"Using segmentation server %s":               "使用抠图服务 %s",
	})
}
