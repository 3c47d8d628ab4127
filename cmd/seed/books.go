package main

import "library-ai-be/internal/entity"

func rating(v float64) *float64 { return &v }
func stock(v int) *int          { return &v }

func demoBooks() []entity.Book {
	return []entity.Book{
		{
			Title:         "三体",
			Author:        "刘慈欣",
			AuthorProfile: "刘慈欣，中国科幻作家，雨果奖得主",
			Publisher:     "重庆出版社",
			Description:   "文化大革命中的一次秘密军事工程引出了人类与三体文明的接触。",
			Tags:          []string{"科幻", "小说", "硬科幻"},
			Rating:        rating(9.3),
			Stock:         stock(6),
			PublishYear:   2008,
		},
		{
			Title:         "三体II：黑暗森林",
			Author:        "刘慈欣",
			AuthorProfile: "刘慈欣，中国科幻作家，雨果奖得主",
			Publisher:     "重庆出版社",
			Description:   "面壁计划与黑暗森林法则。",
			Tags:          []string{"科幻", "小说"},
			Rating:        rating(9.4),
			Stock:         stock(3),
			PublishYear:   2008,
		},
		{
			Title:         "围城",
			Author:        "钱钟书",
			AuthorProfile: "钱钟书，中国现代作家、文学研究家",
			Publisher:     "人民文学出版社",
			Description:   "方鸿渐留学归国后的婚姻与事业。",
			Tags:          []string{"文学", "小说", "经典"},
			Rating:        rating(8.9),
			Stock:         stock(4),
			PublishYear:   1947,
		},
		{
			Title:         "活着",
			Author:        "余华",
			AuthorProfile: "余华，中国当代作家",
			Publisher:     "作家出版社",
			Description:   "福贵一生的苦难与坚韧。",
			Tags:          []string{"文学", "小说"},
			Rating:        rating(9.4),
			Stock:         stock(0),
			PublishYear:   1993,
		},
		{
			Title:         "算法导论",
			Author:        "Thomas H. Cormen",
			AuthorProfile: "Thomas H. Cormen，达特茅斯学院计算机科学教授",
			Publisher:     "机械工业出版社",
			Description:   "系统介绍算法设计与分析的经典教材。",
			Tags:          []string{"计算机", "算法", "教材"},
			Rating:        rating(9.2),
			Stock:         stock(8),
			PublishYear:   2013,
		},
		{
			Title:       "深入理解计算机系统",
			Author:      "Randal E. Bryant",
			Publisher:   "机械工业出版社",
			Description: "从程序员的视角理解计算机系统。",
			Tags:        []string{"计算机", "系统", "教材"},
			Rating:      rating(9.7),
			PublishYear: 2016,
		},
		{
			Title:       "Go程序设计语言",
			Author:      "Alan A. A. Donovan",
			Publisher:   "机械工业出版社",
			Description: "Go 语言的权威入门与参考。",
			Tags:        []string{"计算机", "编程", "Go"},
			Stock:       stock(2),
			PublishYear: 2017,
		},
	}
}
