package neat

import (
	"math"
	"sort"
)

// Species represents a group of genetically similar genomes.
type Species struct {
	Key             int
	Created         int // Generation the species first appeared.
	LastImproved    int // Last generation its fitness improved.
	Representative  *Genome
	Members         map[int]*Genome
	Fitness         float64
	AdjustedFitness float64
	FitnessHistory  []float64
}

// NewSpecies creates a new species.
func NewSpecies(key, generation int) *Species {
	return &Species{
		Key:          key,
		Created:      generation,
		LastImproved: generation,
		Members:      make(map[int]*Genome),
	}
}

// Update replaces the species' representative and member set.
func (s *Species) Update(representative *Genome, members map[int]*Genome) {
	s.Representative = representative
	s.Members = members
}

// GetFitnesses returns the fitness values of all members.
func (s *Species) GetFitnesses() []float64 {
	fitnesses := make([]float64, 0, len(s.Members))
	for _, g := range s.Members {
		fitnesses = append(fitnesses, g.Fitness)
	}
	return fitnesses
}

// genomePair orders a pair of genome keys for use as a cache key.
type genomePair struct {
	A, B int
}

// GenomeDistanceCache memoizes pairwise genome distances during speciation.
type GenomeDistanceCache struct {
	distances map[genomePair]float64
	Hits      int
	Misses    int
}

// NewGenomeDistanceCache creates an empty distance cache.
func NewGenomeDistanceCache() *GenomeDistanceCache {
	return &GenomeDistanceCache{distances: make(map[genomePair]float64)}
}

// Distance returns the cached or freshly computed distance between genomes.
func (dc *GenomeDistanceCache) Distance(genome1, genome2 *Genome) float64 {
	key := genomePair{A: genome1.Key, B: genome2.Key}
	if key.A > key.B {
		key.A, key.B = key.B, key.A
	}
	if d, ok := dc.distances[key]; ok {
		dc.Hits++
		return d
	}
	dc.Misses++
	d := genome1.Distance(genome2)
	dc.distances[key] = d
	return d
}

// SpeciesSet manages the collection of species within a population.
type SpeciesSet struct {
	Species         map[int]*Species
	GenomeToSpecies map[int]int
	Indexer         int
	Config          *SpeciesSetConfig
}

// NewSpeciesSet creates a new species set manager.
func NewSpeciesSet(config *SpeciesSetConfig) *SpeciesSet {
	return &SpeciesSet{
		Species:         make(map[int]*Species),
		GenomeToSpecies: make(map[int]int),
		Indexer:         1,
		Config:          config,
	}
}

// Speciate partitions the population into species by genetic distance.
func (ss *SpeciesSet) Speciate(config *Config, population map[int]*Genome, generation int) error {
	if len(population) == 0 {
		ss.Species = make(map[int]*Species)
		ss.GenomeToSpecies = make(map[int]int)
		return nil
	}

	threshold := ss.Config.CompatibilityThreshold
	cache := NewGenomeDistanceCache()

	unspeciated := make(map[int]*Genome, len(population))
	for k, v := range population {
		unspeciated[k] = v
	}
	newRepresentatives := map[int]*Genome{}
	newMembers := map[int][]int{}

	// Pick the member closest to each existing representative as the new
	// representative for that species.
	existingIDs := make([]int, 0, len(ss.Species))
	for sid := range ss.Species {
		existingIDs = append(existingIDs, sid)
	}
	sort.Ints(existingIDs)
	for _, sid := range existingIDs {
		s := ss.Species[sid]
		if s.Representative == nil || len(unspeciated) == 0 {
			continue
		}
		var closest *Genome
		minDist := math.Inf(1)
		for _, g := range unspeciated {
			d := cache.Distance(s.Representative, g)
			if d < minDist || (d == minDist && closest != nil && g.Key < closest.Key) {
				minDist = d
				closest = g
			}
		}
		if closest == nil {
			continue
		}
		newRepresentatives[sid] = closest
		newMembers[sid] = []int{closest.Key}
		delete(unspeciated, closest.Key)
	}

	// Assign remaining genomes to the species with the closest compatible
	// representative, creating new species as needed.
	remaining := make([]*Genome, 0, len(unspeciated))
	for _, g := range unspeciated {
		remaining = append(remaining, g)
	}
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].Key < remaining[j].Key })

	for _, g := range remaining {
		bestSpecies := -1
		minDist := math.Inf(1)
		for sid, rep := range newRepresentatives {
			d := cache.Distance(rep, g)
			if d < threshold && d < minDist {
				minDist = d
				bestSpecies = sid
			}
		}
		if bestSpecies != -1 {
			newMembers[bestSpecies] = append(newMembers[bestSpecies], g.Key)
			continue
		}
		sid := ss.Indexer
		ss.Indexer++
		newRepresentatives[sid] = g
		newMembers[sid] = []int{g.Key}
	}

	newSpecies := make(map[int]*Species)
	genomeToSpecies := make(map[int]int)
	for sid, representative := range newRepresentatives {
		members := newMembers[sid]
		if len(members) == 0 {
			continue
		}
		s := ss.Species[sid]
		if s == nil {
			s = NewSpecies(sid, generation)
		}
		memberMap := make(map[int]*Genome, len(members))
		for _, gid := range members {
			memberMap[gid] = population[gid]
			genomeToSpecies[gid] = sid
		}
		s.Update(representative, memberMap)
		newSpecies[sid] = s
	}

	ss.Species = newSpecies
	ss.GenomeToSpecies = genomeToSpecies
	return nil
}

// GetSpeciesID returns the species ID for a genome ID.
func (ss *SpeciesSet) GetSpeciesID(genomeID int) (int, bool) {
	sid, exists := ss.GenomeToSpecies[genomeID]
	return sid, exists
}

// GetSpecies returns the Species containing a genome ID.
func (ss *SpeciesSet) GetSpecies(genomeID int) (*Species, bool) {
	sid, exists := ss.GenomeToSpecies[genomeID]
	if !exists {
		return nil, false
	}
	s, exists := ss.Species[sid]
	return s, exists
}
