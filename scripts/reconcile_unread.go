// 手动触发未读计数校准脚本
//
// 未读数在发送/已读/删除事务里维护，正常情况下不需要校准。
// 此脚本仅用于人工修复，例如直接改库之后。
//
// 用法: go run scripts/reconcile_unread.go

package main

import (
	"alumni_backend/internal/config"
	"alumni_backend/internal/model"
	"alumni_backend/pkg/database"
	"alumni_backend/pkg/logger"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	var convs []model.Conversation
	if err := db.Find(&convs).Error; err != nil {
		log.Fatalf("读取会话失败: %v", err)
	}

	fixed := 0
	for i := range convs {
		conv := &convs[i]

		var unreadA, unreadB int64
		db.Model(&model.Message{}).
			Where("conversation_id = ? AND sender_id = ? AND read_at IS NULL", conv.ID, conv.UserBID).
			Count(&unreadA)
		db.Model(&model.Message{}).
			Where("conversation_id = ? AND sender_id = ? AND read_at IS NULL", conv.ID, conv.UserAID).
			Count(&unreadB)

		if int(unreadA) == conv.UnreadCountA && int(unreadB) == conv.UnreadCountB {
			continue
		}

		log.Printf("会话 %s 计数偏差: a %d->%d, b %d->%d",
			conv.ID, conv.UnreadCountA, unreadA, conv.UnreadCountB, unreadB)

		err := db.Model(&model.Conversation{}).
			Where("id = ?", conv.ID).
			Updates(map[string]interface{}{
				"unread_count_a": unreadA,
				"unread_count_b": unreadB,
			}).Error
		if err != nil {
			log.Printf("会话 %s 修复失败: %v", conv.ID, err)
			continue
		}
		fixed++
	}

	log.Printf("校准完成，共修复 %d 个会话", fixed)
}
